package builtin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/svclocator/internal/bootstrap"
	"github.com/fyrsmithlabs/svclocator/internal/services"
)

const (
	defaultSnapshotEvery = 600
	defaultSnapshotFile  = "svclocd-status.json"
)

func init() {
	bootstrap.Add("snapshot", NewSnapshot)
}

// SnapshotDocument is the JSON written by Snapshot.
type SnapshotDocument struct {
	WrittenAt time.Time         `json:"written_at"`
	Frame     uint64            `json:"frame"`
	Services  []services.Status `json:"services"`
}

// Snapshot periodically writes the registry status list to a file. It is
// opt-in: enable it with services.snapshot.auto_start.
type Snapshot struct {
	logger *zap.Logger
	source bootstrap.StatusSource
	path   string
	every  uint64
	frames uint64
	writes uint64
}

// NewSnapshot is the bootstrap factory for Snapshot.
func NewSnapshot(env bootstrap.Env) (services.Service, error) {
	if env.Statuses == nil {
		return nil, errors.New("snapshot requires a status source")
	}

	path := env.Config.Path
	if path == "" {
		path = filepath.Join(os.TempDir(), defaultSnapshotFile)
	}
	every := uint64(defaultSnapshotEvery)
	if env.Config.Every > 0 {
		every = uint64(env.Config.Every)
	}
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Snapshot{
		logger: logger,
		source: env.Statuses,
		path:   path,
		every:  every,
	}, nil
}

func (s *Snapshot) Name() string                   { return "snapshot" }
func (s *Snapshot) GetPriority() services.Priority { return services.Low }
func (s *Snapshot) DoAutoStart() bool              { return false }
func (s *Snapshot) OnStart()                       {}
func (s *Snapshot) OnPause(bool)                   {}

// OnStop writes a final snapshot.
func (s *Snapshot) OnStop() {
	s.write()
}

func (s *Snapshot) Update() {
	s.frames++
	if s.frames%s.every == 0 {
		s.write()
	}
}

// Path returns the output file.
func (s *Snapshot) Path() string { return s.path }

// Writes returns the number of successful writes.
func (s *Snapshot) Writes() uint64 { return s.writes }

func (s *Snapshot) write() {
	if err := s.writeFile(); err != nil {
		s.logger.Warn("failed to write status snapshot", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.writes++
}

// writeFile replaces the output atomically through a temp file in the same
// directory.
func (s *Snapshot) writeFile() error {
	data, err := json.MarshalIndent(SnapshotDocument{
		WrittenAt: time.Now().UTC(),
		Frame:     s.frames,
		Services:  s.source.Statuses(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
