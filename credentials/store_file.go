package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/principal"
	pkgerrors "github.com/pkg/errors"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the two keys in a single JSON document on disk. Writes go
// through a temporary file and a rename so a crash never leaves half a
// document behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileDocument struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user,omitempty"`
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("[NewFileStore] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, pkgerrors.Wrap(err, "[NewFileStore] create directory")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(token string, p *principal.Principal) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}

	doc := fileDocument{Token: token}
	if p != nil {
		user, err := json.Marshal(p)
		if err != nil {
			return pkgerrors.Wrap(err, "[FileStore Save] marshal user")
		}
		doc.User = user
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(err, "[FileStore Save] marshal document")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (s *FileStore) Load() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.Wrap(errors.ErrCorruptSnapshot, err.Error())
	}
	if doc.Token == "" {
		return nil, nil
	}

	return decodeCredential(doc.Token, doc.User)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

// decodeCredential turns the raw user snapshot into a principal. A snapshot
// that no longer decodes is dropped; the token alone is still usable since
// verification refreshes the principal.
func decodeCredential(token string, user []byte) (*Credential, error) {
	c := &Credential{Token: token}
	if len(user) == 0 || string(user) == "null" {
		return c, nil
	}
	var p principal.Principal
	if err := json.Unmarshal(user, &p); err != nil {
		return c, pkgerrors.Wrap(errors.ErrCorruptSnapshot, err.Error())
	}
	c.Principal = &p
	return c, nil
}
