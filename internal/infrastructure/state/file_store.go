package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/domain/entity"
)

const filePermissionOwnerRW = 0o600

// FileStore keeps the variable store as a single JSON object, or YAML
// mapping when the path ends in .yaml or .yml.
type FileStore struct {
	fs    afero.Fs
	path  string
	flock *flock.Flock
}

type Option func(*FileStore)

func WithFs(fs afero.Fs) Option {
	return func(s *FileStore) { s.fs = fs }
}

func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		fs:   afero.NewOsFs(),
		path: path,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Advisory locks only mean something on the real filesystem.
	if _, ok := s.fs.(*afero.OsFs); ok {
		s.flock = flock.New(path + ".lock")
	}
	return s
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

func (s *FileStore) lock() (func(), error) {
	if s.flock == nil {
		return func() {}, nil
	}
	if err := s.flock.Lock(); err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	return func() { _ = s.flock.Unlock() }, nil
}

func (s *FileStore) Load(ctx context.Context) (entity.Variables, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reading variables %s: %w", s.path, domain.WrapOp("read variables", domain.ErrStateNotFound))
		}
		return nil, fmt.Errorf("reading variables %s: %w", s.path, domain.WrapOp("read variables", domain.ErrStateReadFailed))
	}

	vars := entity.Variables{}
	if s.isYAML() {
		err = yaml.Unmarshal(data, &vars)
	} else {
		err = json.Unmarshal(data, &vars)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing variables %s: %w", s.path, domain.NewOpError("parse variables", fmt.Errorf("%w: %v", domain.ErrStateSerializeFail, err)))
	}
	if vars == nil {
		vars = entity.Variables{}
	}
	return vars, nil
}

func (s *FileStore) Save(ctx context.Context, vars entity.Variables) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if vars == nil {
		vars = entity.Variables{}
	}

	var data []byte
	if s.isYAML() {
		data, err = yaml.Marshal(map[string]string(vars))
	} else {
		data, err = json.MarshalIndent(vars, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshaling variables for %s: %w", s.path, domain.WrapOp("marshal variables", domain.ErrStateSerializeFail))
	}

	perm := os.FileMode(filePermissionOwnerRW)
	if info, err := s.fs.Stat(s.path); err == nil {
		perm = info.Mode().Perm()
	}

	tmpPath := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp")
	if err := afero.WriteFile(s.fs, tmpPath, data, perm); err != nil {
		return fmt.Errorf("writing temp variables file %s: %w", tmpPath, domain.WrapOp("write temp variables file", domain.ErrStateWriteFailed))
	}
	// WriteFile is subject to the umask; the replaced file keeps its exact mode.
	if err := s.fs.Chmod(tmpPath, perm); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("setting mode of %s: %w", tmpPath, domain.WrapOp("chmod variables file", domain.ErrStateWriteFailed))
	}

	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("renaming variables file from %s to %s: %w", tmpPath, s.path, domain.WrapOp("rename variables file", domain.ErrStateWriteFailed))
	}

	return nil
}
