package pipeline

import (
	"fmt"
	"os"
	"sync"

	"github.com/minios-linux/proptrans/atomicfile"
	"github.com/minios-linux/proptrans/lockfile"
	"gopkg.in/yaml.v3"
)

// checkpointVersion is the checkpoint format version.
const checkpointVersion = 1

// Draft is a phase 1 translation kept across runs.
type Draft struct {
	SourceHash string `yaml:"source_md5"`
	Value      string `yaml:"value"`
}

// FileCheckpoint is the saved progress of one file.
type FileCheckpoint struct {
	Status Status           `yaml:"status"`
	Drafts map[string]Draft `yaml:"drafts,omitempty"`
}

// Checkpoint is the resumable state of a run, saved as YAML. Phase 1 drafts
// survive an interrupted run so that a restart does not pay for them again.
type Checkpoint struct {
	Version int                       `yaml:"version"`
	RunID   string                    `yaml:"run_id"`
	Files   map[string]FileCheckpoint `yaml:"files"`

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// LoadCheckpoint reads the checkpoint at path. A missing file gives an
// empty checkpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	cp := &Checkpoint{Version: checkpointVersion, Files: make(map[string]FileCheckpoint), path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cp, nil
		}
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	if err := yaml.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	if cp.Version > checkpointVersion {
		return nil, fmt.Errorf("%s: unsupported checkpoint version %d", path, cp.Version)
	}
	if cp.Files == nil {
		cp.Files = make(map[string]FileCheckpoint)
	}
	return cp, nil
}

// Drafts returns the saved drafts of file whose source value still hashes
// to the recorded checksum.
func (cp *Checkpoint) Drafts(file string, source map[string]string) map[string]string {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	out := make(map[string]string)
	for key, d := range cp.Files[file].Drafts {
		if src, ok := source[key]; ok && lockfile.Hash(src) == d.SourceHash {
			out[key] = d.Value
		}
	}
	return out
}

// SetDrafts records the drafts of file. sources maps each key to the
// source value it was translated from.
func (cp *Checkpoint) SetDrafts(file string, drafts, sources map[string]string) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	fc := cp.Files[file]
	if fc.Drafts == nil {
		fc.Drafts = make(map[string]Draft, len(drafts))
	}
	for key, v := range drafts {
		fc.Drafts[key] = Draft{SourceHash: lockfile.Hash(sources[key]), Value: v}
	}
	cp.Files[file] = fc
}

// SetStatus records the state of file. Done files drop their drafts.
func (cp *Checkpoint) SetStatus(file string, s Status) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	fc := cp.Files[file]
	fc.Status = s
	if s == StatusDone {
		fc.Drafts = nil
	}
	cp.Files[file] = fc
}

// Save writes the checkpoint atomically. The lock is held until the file
// is renamed into place, so concurrent saves land in call order.
func (cp *Checkpoint) Save() error {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	data, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}
	return atomicfile.WriteFile(cp.path, data, 0644)
}

// Remove deletes the checkpoint file.
func (cp *Checkpoint) Remove() error {
	if err := os.Remove(cp.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
