package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/KaramelBytes/malstat/internal/utils"
	"github.com/google/uuid"
)

const (
	manifestFileName = "manifest.json"
)

// Artifact is one file produced by a run.
type Artifact struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// Manifest records a report run persisted next to its outputs.
type Manifest struct {
	RunID     string            `json:"run_id"`
	Source    string            `json:"source"`
	Geometry  string            `json:"geometry,omitempty"`
	Options   map[string]string `json:"options"`
	Artifacts []Artifact        `json:"artifacts"`
	Problems  []string          `json:"problems,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Not serialized: output directory holding manifest.json
	rootDir string `json:"-"`
}

// New constructs an in-memory manifest. An empty runID gets a fresh uuid.
func New(runID, source, rootDir string) *Manifest {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Manifest{
		RunID:     runID,
		Source:    source,
		Options:   make(map[string]string),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		rootDir:   rootDir,
	}
}

// Load reads manifest.json from the provided directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.rootDir = dir
	return &m, nil
}

// RootDir returns the output directory.
func (m *Manifest) RootDir() string { return m.rootDir }

// SetOption records a run setting.
func (m *Manifest) SetOption(key, value string) {
	if m.Options == nil {
		m.Options = make(map[string]string)
	}
	m.Options[key] = value
}

// Add stats a written file and records it. Paths inside the output directory
// are stored relative to it.
func (m *Manifest) Add(kind, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	rel := path
	if m.rootDir != "" {
		if r, err := filepath.Rel(m.rootDir, path); err == nil {
			rel = filepath.ToSlash(r)
		}
	}
	for i := range m.Artifacts {
		if m.Artifacts[i].Path == rel {
			m.Artifacts[i] = Artifact{Kind: kind, Path: rel, Bytes: info.Size()}
			return nil
		}
	}
	m.Artifacts = append(m.Artifacts, Artifact{Kind: kind, Path: rel, Bytes: info.Size()})
	m.UpdatedAt = time.Now()
	return nil
}

// Save writes manifest.json using atomic write.
func (m *Manifest) Save() error {
	if m.rootDir == "" {
		return errors.New("manifest root directory not set")
	}
	if err := utils.EnsureDir(m.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	sort.SliceStable(m.Artifacts, func(i, j int) bool {
		if m.Artifacts[i].Kind != m.Artifacts[j].Kind {
			return m.Artifacts[i].Kind < m.Artifacts[j].Kind
		}
		return m.Artifacts[i].Path < m.Artifacts[j].Path
	})
	m.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(m.rootDir, manifestFileName), data)
}

// Path returns where Save writes.
func (m *Manifest) Path() string { return filepath.Join(m.rootDir, manifestFileName) }
