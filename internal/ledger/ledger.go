package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/vk/hydroprep/internal/artifact"
	"github.com/vk/hydroprep/internal/fsutil"
)

// SchemaVersion is the current major version of the serialized ledger
// format. A ledger written under a different major version is rejected, not
// auto-upgraded; the version bump is the signal that old projects need
// manual migration.
const SchemaVersion = 2

// ledgerFile is the on-disk shape of metadata.json.
type ledgerFile struct {
	SchemaVersion int                           `json:"schema_version"`
	Steps         map[string]*StepRecord        `json:"steps"`
	Artifacts     map[string]*artifact.Artifact `json:"artifacts"`
}

// Ledger is the in-memory view of a project's step records and artifact
// registry. It is only reachable through a Session, which holds the
// cross-process lock for the duration of a read-validate-write sequence.
type Ledger struct {
	path     string
	steps    map[string]*StepRecord
	store    *artifact.Store
	loadedAt time.Time
	now      func() time.Time
}

func load(path string) (*Ledger, error) {
	led := &Ledger{
		path:     path,
		steps:    make(map[string]*StepRecord),
		store:    artifact.NewStore(),
		loadedAt: time.Now(),
		now:      time.Now,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First invocation against this project; start empty.
		return led, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %q: %w", path, err)
	}

	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &CorruptLedgerError{Path: path, Reason: "not valid JSON", Err: err}
	}
	if file.SchemaVersion != SchemaVersion {
		return nil, &CorruptLedgerError{
			Path:   path,
			Reason: fmt.Sprintf("schema version %d is not version %d; older ledgers are not auto-upgraded", file.SchemaVersion, SchemaVersion),
		}
	}

	if file.Steps != nil {
		led.steps = file.Steps
	}
	led.store.Restore(file.Artifacts)
	return led, nil
}

// GetStep returns the record for name, or ErrStepNotFound.
func (l *Ledger) GetStep(name string) (*StepRecord, error) {
	rec, ok := l.steps[name]
	if !ok {
		return nil, fmt.Errorf("step %q: %w", name, ErrStepNotFound)
	}
	return rec, nil
}

// Artifact looks up a registered artifact by name.
func (l *Ledger) Artifact(name string) (*artifact.Artifact, bool) {
	return l.store.Get(name)
}

// ListArtifacts returns all registered artifacts with the given type tag.
func (l *Ledger) ListArtifacts(t artifact.Type) []artifact.Artifact {
	return l.store.ListByType(t)
}

// Steps returns the names of all recorded steps.
func (l *Ledger) Steps() []string {
	out := make([]string, 0, len(l.steps))
	for name := range l.steps {
		out = append(out, name)
	}
	return out
}

// RecordStep writes the record for one completed step invocation, registers
// its produced artifacts, and persists the ledger atomically. A prior record
// under the same name is replaced wholesale.
//
// Before writing, the on-disk file is re-read: if it already holds a record
// for this step newer than what this session loaded, a concurrent invocation
// won the race and the write fails with DuplicateStepConflictError rather
// than clobbering the newer record.
func (l *Ledger) RecordStep(name string, params Params, consumed []string, produced []artifact.Artifact) (*StepRecord, error) {
	for _, ref := range consumed {
		if _, ok := l.store.Get(ref); !ok {
			return nil, fmt.Errorf("consumed artifact %q is not registered", ref)
		}
	}

	if err := l.checkConflict(name); err != nil {
		return nil, err
	}

	rec := &StepRecord{
		Name:      name,
		Timestamp: l.now(),
		Params:    params.Clone(),
		Consumed:  append([]string(nil), consumed...),
	}
	for _, a := range produced {
		a.Step = name
		if a.CreatedAt.IsZero() {
			a.CreatedAt = rec.Timestamp
		}
		stored := l.store.Register(a)
		rec.Produced = append(rec.Produced, stored.Name)
	}
	l.steps[name] = rec

	if err := l.flush(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (l *Ledger) checkConflict(name string) error {
	onDisk, err := load(l.path)
	if err != nil {
		return err
	}
	rec, ok := onDisk.steps[name]
	if !ok {
		return nil
	}
	// A record this session wrote itself is not a conflict; reruns within one
	// session overwrite freely.
	if ours, ok := l.steps[name]; ok && ours.Timestamp.Equal(rec.Timestamp) {
		return nil
	}
	if rec.Timestamp.After(l.loadedAt) {
		return &DuplicateStepConflictError{Step: name}
	}
	return nil
}

func (l *Ledger) flush() error {
	file := ledgerFile{
		SchemaVersion: SchemaVersion,
		Steps:         l.steps,
		Artifacts:     l.store.Snapshot(),
	}
	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(l.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to persist ledger: %w", err)
	}
	return nil
}
