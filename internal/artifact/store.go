package artifact

import "sort"

// Store is the project's registry of produced artifacts, addressed by name.
// Re-registering a name replaces the previous entry; that is the expected
// behavior when a step reruns.
type Store struct {
	byName map[string]*Artifact
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byName: make(map[string]*Artifact)}
}

// Register adds or replaces the artifact under its name and returns the
// stored copy.
func (s *Store) Register(a Artifact) *Artifact {
	stored := a
	s.byName[a.Name] = &stored
	return &stored
}

// Get looks up an artifact by name.
func (s *Store) Get(name string) (*Artifact, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// ListByType returns all artifacts carrying the given type tag, sorted by
// name for stable output.
func (s *Store) ListByType(t Type) []Artifact {
	var out []Artifact
	for _, a := range s.byName {
		if a.Type == t {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// All returns every artifact, sorted by name.
func (s *Store) All() []Artifact {
	out := make([]Artifact, 0, len(s.byName))
	for _, a := range s.byName {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Snapshot exposes the backing map for serialization by the ledger.
func (s *Store) Snapshot() map[string]*Artifact {
	return s.byName
}

// Restore replaces the store contents from a deserialized map. A nil map
// leaves the store empty.
func (s *Store) Restore(m map[string]*Artifact) {
	s.byName = make(map[string]*Artifact, len(m))
	for name, a := range m {
		s.byName[name] = a
	}
}
