// Package project models the on-disk layout of a preparation project: the
// serialized ledger, the maps directory where engine outputs land, and the
// defs directory holding stratum and station definition files.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/hydroprep/internal/fsutil"
)

// Names of the fixed entries under a project root.
const (
	LedgerFile = "metadata.json"
	LockFile   = ".ledger.lock"
	MapsDir    = "maps"
	DefsDir    = "defs"
)

// Project is the top-level unit of work, identified by its root directory.
type Project struct {
	Root string
}

// Open binds to the project at root, creating the layout on first use. A
// project comes into existence on the first step invocation against its
// directory; there is no separate init command.
func Open(root string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %q: %w", root, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("project root %q is not a directory", abs)
	}
	for _, dir := range []string{abs, filepath.Join(abs, MapsDir), filepath.Join(abs, DefsDir)} {
		if err := fsutil.EnsureDir(dir); err != nil {
			return nil, err
		}
	}
	return &Project{Root: abs}, nil
}

// LedgerPath returns the path of the serialized ledger file.
func (p *Project) LedgerPath() string { return filepath.Join(p.Root, LedgerFile) }

// LockPath returns the path of the advisory lock file guarding the ledger.
func (p *Project) LockPath() string { return filepath.Join(p.Root, LockFile) }

// MapsPath returns the directory engine outputs are registered under.
func (p *Project) MapsPath() string { return filepath.Join(p.Root, MapsDir) }

// DefsPath returns the directory scanned for *.hcl definition files.
func (p *Project) DefsPath() string { return filepath.Join(p.Root, DefsDir) }
