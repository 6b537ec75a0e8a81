package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-tender-client/session"
)

var _ session.Store = (*FileStore)(nil)

// FileStore persists values as a JSON object in a single file with 0600
// permissions. Every write replaces the file atomically.
type FileStore struct {
	path string
	lock sync.Mutex
}

func New(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Clear removes keys in a single write so either all or none are gone.
func (s *FileStore) Clear(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		// A corrupt file cannot hold a usable session; drop it.
		if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
			return errors.Wrap(rmErr, "remove credential file")
		}
		return nil
	}
	for _, k := range keys {
		delete(values, k)
	}
	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "remove credential file")
		}
		return nil
	}
	return s.save(values)
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read credential file")
	}
	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrap(err, "parse credential file")
	}
	// a file holding null decodes to a nil map
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "create credential dir")
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode credentials")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replace credential file")
}
