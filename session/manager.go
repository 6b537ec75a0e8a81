package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/jrsteele09/go-tender-client/token"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Manager owns the credential pair and the session lifecycle:
// Anonymous -> Authenticated on login, Authenticated -> Refreshing on a 401,
// back to Authenticated on a successful refresh, and to Anonymous on logout or
// an irrecoverable refresh failure. It is safe for concurrent use.
type Manager struct {
	baseURL   string
	store     Store
	raw       *http.Client // undecorated; login, refresh and logout go through it
	client    *http.Client // decorated with this manager's transport
	endpoints Endpoints
	navigator Navigator
	logger    zerolog.Logger
	flight    singleflight.Group

	mu      sync.RWMutex
	state   State
	profile *UserProfile
}

var _ oauth2.TokenSource = (*Manager)(nil)

type Option func(*Manager)

// WithHTTPClient sets the client used for all backend calls. Any session
// decoration already on it is stripped.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.raw = c
	}
}

func WithEndpoints(e Endpoints) Option {
	return func(m *Manager) {
		m.endpoints = e
	}
}

func WithNavigator(n Navigator) Option {
	return func(m *Manager) {
		m.navigator = n
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

func New(baseURL string, store Store, options ...Option) *Manager {
	m := &Manager{
		baseURL:   strings.TrimRight(baseURL, "/"),
		store:     store,
		endpoints: DefaultEndpoints,
		logger:    zerolog.Nop(),
		state:     Anonymous,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.raw == nil {
		m.raw = &http.Client{Timeout: 30 * time.Second}
	}
	m.raw = Uninstall(m.raw)
	if m.navigator == nil {
		m.navigator = NavigatorFunc(func(reason string) {
			m.logger.Info().Str("reason", reason).Msg("session ended, login required")
		})
	}
	m.client = m.Install(m.raw)
	return m
}

// Client returns an *http.Client decorated with this session.
func (m *Manager) Client() *http.Client {
	return m.client
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Profile returns a copy of the in-memory profile, nil when none is loaded.
func (m *Manager) Profile() *UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

// Credentials returns the stored pair; ok is false without an access token.
func (m *Manager) Credentials() (Credentials, bool) {
	c := Credentials{Access: m.read(AccessKey), Refresh: m.read(RefreshKey)}
	return c, c.Access != ""
}

// Token implements oauth2.TokenSource over the stored pair. Expiry comes from
// the access token's exp claim when the token is a JWT.
func (m *Manager) Token() (*oauth2.Token, error) {
	creds, ok := m.Credentials()
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	tok := &oauth2.Token{
		AccessToken:  creds.Access,
		RefreshToken: creds.Refresh,
		TokenType:    "Bearer",
	}
	if in, err := token.Inspect(creds.Access); err == nil {
		tok.Expiry = in.ExpiresAt
	}
	return tok, nil
}

// Login exchanges credentials for a token pair, persists it and loads the
// profile. The server's error detail is surfaced verbatim in the AuthError.
func (m *Manager) Login(ctx context.Context, username, password string) (*UserProfile, error) {
	var pair Credentials
	status, detail, err := m.postJSON(ctx, m.endpoints.Login, loginRequest{Username: username, Password: password}, &pair)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusUnauthorized:
		return nil, &apperrors.AuthError{Op: "login", Detail: detail, Err: apperrors.ErrInvalidCredentials}
	case status >= 400 && status < 500:
		return nil, &apperrors.AuthError{Op: "login", Detail: detail}
	case status >= 400:
		return nil, &apperrors.NetworkError{StatusCode: status, Message: detail}
	}
	if pair.Access == "" || pair.Refresh == "" {
		m.logger.Error().Msg("login failed: missing tokens")
		return nil, &apperrors.AuthError{Op: "login", Err: apperrors.ErrMissingTokens}
	}

	if err := m.persist(pair); err != nil {
		return nil, apperrors.Wrapf(err, "session.Login persist")
	}
	m.setState(Authenticated)

	profile, err := m.FetchProfile(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to get user info")
		m.Logout(ctx)
		return nil, err
	}
	m.logger.Info().Str("username", profile.Username).Msg("logged in")
	return profile, nil
}

// Restore is the start-up transition: with a persisted access token the
// profile is fetched eagerly; if that fails the pair is cleared.
func (m *Manager) Restore(ctx context.Context) error {
	if m.read(AccessKey) == "" {
		m.setState(Anonymous)
		return nil
	}
	if _, err := m.FetchProfile(ctx); err != nil {
		m.clear()
		m.mu.Lock()
		m.state = Anonymous
		m.profile = nil
		m.mu.Unlock()
		m.logger.Warn().Err(err).Msg("stored session could not be restored")
		return err
	}
	m.setState(Authenticated)
	return nil
}

// FetchProfile loads the user-info endpoint through the decorated client.
func (m *Manager) FetchProfile(ctx context.Context) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+m.endpoints.UserInfo, nil)
	if err != nil {
		return nil, apperrors.Wrapf(err, "session.FetchProfile NewRequest")
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, unwrapTransportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return nil, &apperrors.NetworkError{StatusCode: resp.StatusCode, Message: readErrorDetail(resp.Body)}
	}
	var body userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.Wrapf(err, "session.FetchProfile decode")
	}
	if body.User == nil {
		return nil, &apperrors.AuthError{Op: "profile", Detail: "response carried no user"}
	}

	m.mu.Lock()
	p := *body.User
	m.profile = &p
	m.mu.Unlock()
	return body.User, nil
}

// Logout invalidates the refresh token on the server when it can, then
// always clears the local pair and redirects. It never fails.
func (m *Manager) Logout(ctx context.Context) {
	if refresh := m.read(RefreshKey); refresh != "" {
		status, detail, err := m.postJSON(ctx, m.endpoints.Logout, refreshRequest{Refresh: refresh}, nil)
		switch {
		case err != nil:
			m.logger.Warn().Err(err).Msg("logout notification failed")
		case status >= 400:
			m.logger.Warn().Int("status", status).Str("detail", detail).Msg("logout notification rejected")
		}
	}
	m.teardown("logout")
}

// renewAccess returns the token to retry with after used was rejected.
// Concurrent callers share one refresh; a caller whose token was already
// replaced by another refresh gets the current token without a new call.
// A caller whose session has since been torn down fails without a second
// teardown or redirect.
func (m *Manager) renewAccess(ctx context.Context, used string) (string, error) {
	v, err, _ := m.flight.Do("refresh", func() (any, error) {
		current := m.read(AccessKey)
		if used != "" && current == "" {
			return "", &apperrors.AuthError{Op: "refresh", Err: apperrors.ErrNoRefreshToken}
		}
		if current != "" && current != used {
			return current, nil
		}
		return m.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	refresh := m.read(RefreshKey)
	if refresh == "" {
		m.teardown("no refresh token")
		return "", &apperrors.AuthError{Op: "refresh", Err: apperrors.ErrNoRefreshToken}
	}

	m.setState(Refreshing)
	var out refreshResponse
	status, detail, err := m.postJSON(ctx, m.endpoints.Refresh, refreshRequest{Refresh: refresh}, &out)
	if err == nil && status >= 400 {
		err = &apperrors.NetworkError{StatusCode: status, Message: detail}
	}
	if err == nil && out.Access == "" {
		err = apperrors.ErrMissingTokens
	}
	if err == nil {
		err = m.store.Set(AccessKey, out.Access)
	}
	if err == nil && out.Refresh != "" && out.Refresh != refresh {
		err = m.store.Set(RefreshKey, out.Refresh)
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("token refresh failed")
		m.teardown("refresh failed")
		return "", &apperrors.AuthError{Op: "refresh", Detail: detail, Err: fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)}
	}

	m.setState(Authenticated)
	m.logger.Debug().Msg("access token refreshed")
	return out.Access, nil
}

func (m *Manager) teardown(reason string) {
	m.clear()
	m.mu.Lock()
	m.state = Anonymous
	m.profile = nil
	m.mu.Unlock()
	m.navigator.RedirectToLogin(reason)
}

func (m *Manager) persist(pair Credentials) error {
	if err := m.store.Set(AccessKey, pair.Access); err != nil {
		return err
	}
	if err := m.store.Set(RefreshKey, pair.Refresh); err != nil {
		m.clear()
		return err
	}
	return nil
}

func (m *Manager) clear() {
	if err := m.store.Clear(AccessKey, RefreshKey); err != nil {
		m.logger.Error().Err(err).Msg("failed to clear stored credentials")
	}
}

func (m *Manager) read(key string) string {
	v, ok, err := m.store.Get(key)
	if err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("credential store read failed")
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// postJSON sends body through the undecorated client. A non-2xx status is
// returned with the server's detail text, not as an error; err is only set
// when no response was obtained. A 2xx body that does not decode leaves out
// zero-valued for the caller to reject.
func (m *Manager) postJSON(ctx context.Context, path string, body, out any) (int, string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, "", apperrors.Wrapf(err, "marshal body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, "", apperrors.Wrapf(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.raw.Do(req)
	if err != nil {
		return 0, "", &apperrors.NetworkError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return resp.StatusCode, readErrorDetail(resp.Body), nil
	}
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, "", nil
}

func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 1<<20)) // 1 MB max error body
	if err != nil {
		return ""
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.message() != "" {
		return eb.message()
	}
	return strings.TrimSpace(string(raw))
}

// unwrapTransportError strips the *url.Error that http.Client adds around
// errors returned by the session transport.
func unwrapTransportError(err error) error {
	var urlErr *url.Error
	if apperrors.As(err, &urlErr) {
		var authErr *apperrors.AuthError
		if apperrors.As(urlErr.Err, &authErr) {
			return authErr
		}
	}
	return &apperrors.NetworkError{Err: err}
}
