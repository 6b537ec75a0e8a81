package devserver

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/jrsteele09/go-tender-client/internal/config"
	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/pkg/errors"
)

// StoredRefreshToken is an issued opaque refresh token. AccessJTI and
// AccessExp track the newest access token minted from it so logout can
// revoke that too.
type StoredRefreshToken struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Iat       time.Time `json:"iat"`
	AccessJTI string    `json:"access_jti,omitempty"`
	AccessExp time.Time `json:"access_exp,omitempty"`
}

type RefreshTokenRepo interface {
	Upsert(token StoredRefreshToken) error
	Get(token string) (*StoredRefreshToken, error)
	Delete(token string) error
	DeleteForUser(username string) error
}

type memoryRefreshRepo struct {
	tokens map[string]StoredRefreshToken
	lock   sync.RWMutex
}

var _ RefreshTokenRepo = (*memoryRefreshRepo)(nil)

func newMemoryRefreshRepo() *memoryRefreshRepo {
	return &memoryRefreshRepo{tokens: make(map[string]StoredRefreshToken)}
}

func (r *memoryRefreshRepo) Upsert(token StoredRefreshToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryRefreshRepo) Get(token string) (*StoredRefreshToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	return &t, nil
}

func (r *memoryRefreshRepo) Delete(token string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *memoryRefreshRepo) DeleteForUser(username string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for k, t := range r.tokens {
		if t.Username == username {
			delete(r.tokens, k)
		}
	}
	return nil
}

// RefreshManager issues, rotates and revokes refresh tokens. A user holds
// at most one live refresh token; issuing a new one replaces the old.
type RefreshManager struct {
	repo    RefreshTokenRepo
	config  config.DevServerConfig
	nowFunc func() time.Time
}

func NewRefreshManager(repo RefreshTokenRepo, cfg config.DevServerConfig, now func() time.Time) *RefreshManager {
	if now == nil {
		now = time.Now
	}
	return &RefreshManager{repo: repo, config: cfg, nowFunc: now}
}

// Create issues a fresh refresh token for username.
func (m *RefreshManager) Create(username string) (*StoredRefreshToken, error) {
	if err := m.repo.DeleteForUser(username); err != nil {
		return nil, errors.Wrap(err, "[RefreshManager.Create] DeleteForUser")
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, errors.Wrap(err, "[RefreshManager.Create] rand.Read")
	}

	stored := StoredRefreshToken{
		Token:    hex.EncodeToString(tokenBytes),
		Username: username,
		Iat:      m.nowFunc(),
	}
	if err := m.repo.Upsert(stored); err != nil {
		return nil, errors.Wrap(err, "[RefreshManager.Create] Upsert")
	}
	return &stored, nil
}

// Get returns a live token, removing it if it has expired.
func (m *RefreshManager) Get(token string) (*StoredRefreshToken, error) {
	stored, err := m.repo.Get(token)
	if err != nil {
		return nil, err
	}
	if m.IsExpired(stored) {
		_ = m.repo.Delete(token)
		return nil, apperrors.ErrRefreshTokenExpired
	}
	return stored, nil
}

// Rotate exchanges a live token for a new one.
func (m *RefreshManager) Rotate(token string) (*StoredRefreshToken, error) {
	stored, err := m.Get(token)
	if err != nil {
		return nil, err
	}
	return m.Create(stored.Username)
}

// BindAccess records the access token most recently minted for token.
func (m *RefreshManager) BindAccess(token, jti string, exp time.Time) error {
	stored, err := m.repo.Get(token)
	if err != nil {
		return err
	}
	stored.AccessJTI = jti
	stored.AccessExp = exp
	return m.repo.Upsert(*stored)
}

// Revoke deletes token and returns what it was, or nil if it was unknown.
func (m *RefreshManager) Revoke(token string) *StoredRefreshToken {
	stored, err := m.repo.Get(token)
	if err != nil {
		return nil
	}
	_ = m.repo.Delete(token)
	return stored
}

func (m *RefreshManager) IsExpired(token *StoredRefreshToken) bool {
	return m.nowFunc().After(token.Iat.Add(m.config.GetRefreshTokenExpiry()))
}
