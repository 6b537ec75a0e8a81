package session_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/jrsteele09/go-tender-client/session"
	"github.com/jrsteele09/go-tender-client/session/memstore"
	"github.com/jrsteele09/go-tender-client/token"
)

// fakeBackend is a minimal auth backend. Access tokens are accepted when they
// equal valid; refresh hands out next.
type fakeBackend struct {
	mu         sync.Mutex
	valid      string
	next       string
	rotate     string // refresh token returned alongside next, if set
	refreshErr int    // status returned by refresh when non-zero
	loginBody  string // raw login response body override
	loginCode  int
	userInfo   int  // status override for user-info
	rejectAll  bool // data endpoint answers 401 whatever the token

	refreshes  atomic.Int32
	logouts    atomic.Int32
	seenBodies []string
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login/", func(w http.ResponseWriter, r *http.Request) {
		if b.loginCode != 0 {
			w.WriteHeader(b.loginCode)
		}
		if b.loginBody != "" {
			_, _ = io.WriteString(w, b.loginBody)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "a1", "refresh": "r1"})
	})
	mux.HandleFunc("POST /api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		b.refreshes.Add(1)
		if b.refreshErr != 0 {
			w.WriteHeader(b.refreshErr)
			_, _ = io.WriteString(w, `{"detail":"Token is invalid or expired"}`)
			return
		}
		time.Sleep(20 * time.Millisecond)
		b.mu.Lock()
		b.valid = b.next
		resp := map[string]string{"access": b.next}
		if b.rotate != "" {
			resp["refresh"] = b.rotate
		}
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("POST /api/logout/", func(w http.ResponseWriter, r *http.Request) {
		b.logouts.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/user-info/", func(w http.ResponseWriter, r *http.Request) {
		if b.userInfo != 0 {
			w.WriteHeader(b.userInfo)
			return
		}
		if !b.authorised(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{
			"username":         "demo",
			"membership_level": "gold",
		}})
	})
	mux.HandleFunc("/api/data/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.seenBodies = append(b.seenBodies, string(body))
		b.mu.Unlock()
		if b.rejectAll || !b.authorised(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	return mux
}

func (b *fakeBackend) authorised(r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+b.valid
}

type recordingNavigator struct {
	reasons []string
	mu      sync.Mutex
}

func (n *recordingNavigator) RedirectToLogin(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}

func newTestManager(t *testing.T, b *fakeBackend) (*session.Manager, *memstore.MemStore, *recordingNavigator) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	store := memstore.New()
	nav := &recordingNavigator{}
	m := session.New(srv.URL, store,
		session.WithHTTPClient(srv.Client()),
		session.WithNavigator(nav),
	)
	return m, store, nav
}

func seed(t *testing.T, store *memstore.MemStore, access, refresh string) {
	t.Helper()
	if access != "" {
		require.NoError(t, store.Set(session.AccessKey, access))
	}
	if refresh != "" {
		require.NoError(t, store.Set(session.RefreshKey, refresh))
	}
}

func TestLogin_Success(t *testing.T) {
	b := &fakeBackend{valid: "a1"}
	m, store, _ := newTestManager(t, b)

	profile, err := m.Login(context.Background(), "demo", "Demo12345")
	require.NoError(t, err)
	require.Equal(t, "demo", profile.Username)
	require.Equal(t, "gold", profile.MembershipLevel)
	require.Equal(t, session.Authenticated, m.State())
	require.Equal(t, "demo", m.Profile().Username)

	access, ok, err := store.Get(session.AccessKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a1", access)
	refresh, _, _ := store.Get(session.RefreshKey)
	require.Equal(t, "r1", refresh)
}

func TestLogin_Rejected(t *testing.T) {
	b := &fakeBackend{
		loginCode: http.StatusUnauthorized,
		loginBody: `{"detail":"No active account found with the given credentials"}`,
	}
	m, store, _ := newTestManager(t, b)

	_, err := m.Login(context.Background(), "demo", "wrong")
	require.Error(t, err)

	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "No active account found with the given credentials", authErr.Detail)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	require.Equal(t, session.Anonymous, m.State())

	_, ok, _ := store.Get(session.AccessKey)
	require.False(t, ok)
}

func TestLogin_MissingTokens(t *testing.T) {
	for name, body := range map[string]string{
		"no refresh": `{"access":"a1"}`,
		"empty":      `{}`,
		"not json":   `<html>`,
	} {
		t.Run(name, func(t *testing.T) {
			b := &fakeBackend{loginBody: body}
			m, store, _ := newTestManager(t, b)

			_, err := m.Login(context.Background(), "demo", "Demo12345")
			require.ErrorIs(t, err, apperrors.ErrMissingTokens)
			_, ok, _ := store.Get(session.AccessKey)
			require.False(t, ok)
		})
	}
}

func TestLogin_ServerError(t *testing.T) {
	b := &fakeBackend{loginCode: http.StatusBadGateway, loginBody: "upstream down"}
	m, _, _ := newTestManager(t, b)

	_, err := m.Login(context.Background(), "demo", "Demo12345")
	require.True(t, apperrors.IsStatus(err, http.StatusBadGateway))
}

func TestLogin_ProfileFailureLogsOut(t *testing.T) {
	b := &fakeBackend{valid: "a1", userInfo: http.StatusInternalServerError}
	m, store, nav := newTestManager(t, b)

	_, err := m.Login(context.Background(), "demo", "Demo12345")
	require.True(t, apperrors.IsStatus(err, http.StatusInternalServerError))
	require.Equal(t, session.Anonymous, m.State())
	require.Nil(t, m.Profile())
	require.Equal(t, int32(1), b.logouts.Load())
	require.Equal(t, 1, nav.count())

	_, ok, _ := store.Get(session.RefreshKey)
	require.False(t, ok)
}

func TestRequest_RefreshesOnceAndRetries(t *testing.T) {
	b := &fakeBackend{valid: "a2", next: "a2"}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()
	store := memstore.New()
	seed(t, store, "a1", "r1")
	m := session.New(srv.URL, store, session.WithHTTPClient(srv.Client()))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/data/", strings.NewReader("payload"))
	require.NoError(t, err)
	resp, err := m.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(1), b.refreshes.Load())
	require.Equal(t, []string{"payload", "payload"}, b.seenBodies)
	require.Equal(t, session.Authenticated, m.State())

	access, _, _ := store.Get(session.AccessKey)
	require.Equal(t, "a2", access)
	refresh, _, _ := store.Get(session.RefreshKey)
	require.Equal(t, "r1", refresh)
}

func TestRequest_RotatedRefreshTokenIsStored(t *testing.T) {
	b := &fakeBackend{valid: "a2", next: "a2", rotate: "r2"}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()
	store := memstore.New()
	seed(t, store, "a1", "r1")
	m := session.New(srv.URL, store, session.WithHTTPClient(srv.Client()))

	resp, err := m.Client().Get(srv.URL + "/api/data/")
	require.NoError(t, err)
	_ = resp.Body.Close()

	refresh, _, _ := store.Get(session.RefreshKey)
	require.Equal(t, "r2", refresh)
}

func TestRequest_SecondUnauthorizedPropagates(t *testing.T) {
	// refresh succeeds but the server still rejects the new token
	b := &fakeBackend{next: "a2", rejectAll: true}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()
	store := memstore.New()
	seed(t, store, "a1", "r1")
	m := session.New(srv.URL, store, session.WithHTTPClient(srv.Client()))

	resp, err := m.Client().Get(srv.URL + "/api/data/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int32(1), b.refreshes.Load())
	require.Len(t, b.seenBodies, 2)
}

func TestRequest_RefreshFailureEndsSession(t *testing.T) {
	b := &fakeBackend{valid: "a2", refreshErr: http.StatusUnauthorized}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()
	store := memstore.New()
	seed(t, store, "a1", "r1")
	nav := &recordingNavigator{}
	m := session.New(srv.URL, store, session.WithHTTPClient(srv.Client()), session.WithNavigator(nav))

	_, err := m.Client().Get(srv.URL + "/api/data/")
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)

	var authErr *apperrors.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "Token is invalid or expired", authErr.Detail)

	_, ok, _ := store.Get(session.AccessKey)
	require.False(t, ok)
	_, ok, _ = store.Get(session.RefreshKey)
	require.False(t, ok)
	require.Equal(t, session.Anonymous, m.State())
	require.Equal(t, []string{"refresh failed"}, nav.reasons)
}

func TestRequest_NoRefreshToken(t *testing.T) {
	b := &fakeBackend{valid: "a2"}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()
	store := memstore.New()
	seed(t, store, "a1", "")
	nav := &recordingNavigator{}
	m := session.New(srv.URL, store, session.WithHTTPClient(srv.Client()), session.WithNavigator(nav))

	_, err := m.Client().Get(srv.URL + "/api/data/")
	require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
	require.Equal(t, int32(0), b.refreshes.Load())
	require.Equal(t, 1, nav.count())

	_, ok, _ := store.Get(session.AccessKey)
	require.False(t, ok)
}

func TestRequest_LateUnauthorizedAfterFailedRefresh(t *testing.T) {
	b := &fakeBackend{valid: "a2", refreshErr: http.StatusUnauthorized}
	arrived, release := make(chan struct{}), make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/slow/", func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.Handle("/", b.handler())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := memstore.New()
	seed(t, store, "a1", "r1")
	nav := &recordingNavigator{}
	m := session.New(srv.URL, store, session.WithHTTPClient(srv.Client()), session.WithNavigator(nav))

	lateErr := make(chan error, 1)
	go func() {
		_, err := m.Client().Get(srv.URL + "/api/slow/")
		lateErr <- err
	}()
	<-arrived

	// the session ends while the slow request is still in flight
	_, err := m.Client().Get(srv.URL + "/api/data/")
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	close(release)

	require.ErrorIs(t, <-lateErr, apperrors.ErrNoRefreshToken)
	require.Equal(t, int32(1), b.refreshes.Load())
	require.Equal(t, []string{"refresh failed"}, nav.reasons)
}

func TestRequest_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	b := &fakeBackend{valid: "a2", next: "a2"}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()
	store := memstore.New()
	seed(t, store, "a1", "r1")
	m := session.New(srv.URL, store, session.WithHTTPClient(srv.Client()))

	const callers = 8
	var wg sync.WaitGroup
	statuses := make([]int, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := m.Client().Get(srv.URL + "/api/data/")
			errs[i] = err
			if err == nil {
				statuses[i] = resp.StatusCode
				_ = resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, http.StatusOK, statuses[i])
	}
	require.Equal(t, int32(1), b.refreshes.Load())
}

func TestLogout_ClearsEvenWhenServerUnreachable(t *testing.T) {
	store := memstore.New()
	seed(t, store, "a1", "r1")
	nav := &recordingNavigator{}
	// Nothing listens on this port.
	m := session.New("http://127.0.0.1:1", store,
		session.WithHTTPClient(&http.Client{Timeout: time.Second}),
		session.WithNavigator(nav),
	)

	m.Logout(context.Background())

	_, ok, _ := store.Get(session.AccessKey)
	require.False(t, ok)
	_, ok, _ = store.Get(session.RefreshKey)
	require.False(t, ok)
	require.Equal(t, session.Anonymous, m.State())
	require.Equal(t, []string{"logout"}, nav.reasons)
}

func TestLogout_NotifiesServer(t *testing.T) {
	b := &fakeBackend{valid: "a1"}
	m, store, _ := newTestManager(t, b)
	seed(t, store, "a1", "r1")

	m.Logout(context.Background())
	require.Equal(t, int32(1), b.logouts.Load())
}

func TestRestore(t *testing.T) {
	t.Run("no stored token", func(t *testing.T) {
		m, _, _ := newTestManager(t, &fakeBackend{})
		require.NoError(t, m.Restore(context.Background()))
		require.Equal(t, session.Anonymous, m.State())
	})

	t.Run("valid token loads profile", func(t *testing.T) {
		m, store, _ := newTestManager(t, &fakeBackend{valid: "a1"})
		seed(t, store, "a1", "r1")
		require.NoError(t, m.Restore(context.Background()))
		require.Equal(t, session.Authenticated, m.State())
		require.Equal(t, "demo", m.Profile().Username)
	})

	t.Run("failed fetch clears tokens", func(t *testing.T) {
		m, store, _ := newTestManager(t, &fakeBackend{valid: "a1", userInfo: http.StatusInternalServerError})
		seed(t, store, "a1", "r1")
		require.Error(t, m.Restore(context.Background()))
		require.Equal(t, session.Anonymous, m.State())
		_, ok, _ := store.Get(session.AccessKey)
		require.False(t, ok)
		_, ok, _ = store.Get(session.RefreshKey)
		require.False(t, ok)
	})
}

func TestInstallUninstall(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeBackend{})
	base := &http.Client{Transport: http.DefaultTransport, Timeout: 5 * time.Second}

	once := m.Install(base)
	twice := m.Install(once)
	require.Equal(t, http.DefaultTransport, base.Transport, "original client is untouched")
	require.NotEqual(t, http.DefaultTransport, once.Transport)
	require.Equal(t, 5*time.Second, twice.Timeout)

	// one Uninstall strips everything, so Install never stacked layers
	plain := session.Uninstall(twice)
	require.Equal(t, http.DefaultTransport, plain.Transport)
	require.Equal(t, plain.Transport, session.Uninstall(plain).Transport)
}

func TestToken(t *testing.T) {
	m, store, _ := newTestManager(t, &fakeBackend{})

	_, err := m.Token()
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	access, err := token.NewHMACSigner("secret", nil).Sign(jwt.MapClaims{"sub": "demo", "exp": exp.Unix()})
	require.NoError(t, err)
	seed(t, store, access, "r1")

	tok, err := m.Token()
	require.NoError(t, err)
	require.Equal(t, access, tok.AccessToken)
	require.Equal(t, "r1", tok.RefreshToken)
	require.True(t, exp.Equal(tok.Expiry))
}
