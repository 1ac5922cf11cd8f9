package credentials

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/go-portal-session/internal/utils"
	"github.com/jrsteele09/go-portal-session/principal"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore keeps the credential for the lifetime of the process.
type InMemoryStore struct {
	mu    sync.RWMutex
	token string
	user  *principal.Principal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(token string, p *principal.Principal) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.user = utils.Clone(p)
	return nil
}

func (s *InMemoryStore) Load() (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return nil, nil
	}
	return &Credential{Token: s.token, Principal: utils.Clone(s.user)}, nil
}

func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil
	return nil
}
