// Package lockfile implements .tsforge.lock — a snapshot of catalog
// files as last written by this tool. The status command compares the
// recorded checksums against the files on disk to flag catalogs edited
// by other tools between runs.
//
// The lock file is stored alongside .tsforge.yaml as .tsforge.lock.
package lockfile

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the lock file name.
const LockFileName = ".tsforge.lock"

// Version is the lock file format version.
const Version = 1

// Snapshot records one catalog as last written.
type Snapshot struct {
	SHA256     string `yaml:"sha256"`
	Entries    int    `yaml:"entries"`
	Unfinished int    `yaml:"unfinished"`
}

// LockFile represents the .tsforge.lock file structure.
type LockFile struct {
	Version  int                 `yaml:"version"`
	Catalogs map[string]Snapshot `yaml:"catalogs"`

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:  Version,
		Catalogs: make(map[string]Snapshot),
		path:     path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Catalogs == nil {
		lf.Catalogs = make(map[string]Snapshot)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// Hash computes the SHA-256 hex digest of catalog bytes.
func Hash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// Update records a catalog's content and entry counts after a write.
func (lf *LockFile) Update(catalog string, data []byte, entries, unfinished int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Catalogs == nil {
		lf.Catalogs = make(map[string]Snapshot)
	}
	lf.Catalogs[catalogKey(catalog)] = Snapshot{
		SHA256:     Hash(data),
		Entries:    entries,
		Unfinished: unfinished,
	}
}

// Lookup returns the recorded snapshot for a catalog.
func (lf *LockFile) Lookup(catalog string) (Snapshot, bool) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	s, ok := lf.Catalogs[catalogKey(catalog)]
	return s, ok
}

// Modified reports whether a recorded catalog's bytes differ from data.
// Catalogs this tool never wrote are not considered modified.
func (lf *LockFile) Modified(catalog string, data []byte) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	s, ok := lf.Catalogs[catalogKey(catalog)]
	if !ok {
		return false
	}
	return s.SHA256 != Hash(data)
}

// Remove drops the snapshot for a catalog.
func (lf *LockFile) Remove(catalog string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Catalogs, catalogKey(catalog))
}

// Tracked returns the sorted list of recorded catalog keys.
func (lf *LockFile) Tracked() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys := make([]string, 0, len(lf.Catalogs))
	for k := range lf.Catalogs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// catalogKey normalizes catalog paths so lock files written on Windows
// and Unix agree.
func catalogKey(catalog string) string {
	return filepath.ToSlash(catalog)
}
