package session

import (
	"bytes"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// transport attaches the session's bearer token and recovers a single 401
// per request by refreshing and replaying it.
type transport struct {
	base http.RoundTripper
	m    *Manager
}

// Install returns a copy of c whose transport is decorated with this session.
// c is not modified. A client already decorated, by this or any other
// manager, keeps exactly one layer.
func (m *Manager) Install(c *http.Client) *http.Client {
	installed := cloneClient(c)
	base := installed.Transport
	if t, ok := base.(*transport); ok {
		base = t.base
	}
	installed.Transport = &transport{base: base, m: m}
	return installed
}

// Uninstall returns a copy of c with any session decoration removed.
func Uninstall(c *http.Client) *http.Client {
	uninstalled := cloneClient(c)
	if t, ok := uninstalled.Transport.(*transport); ok {
		uninstalled.Transport = t.base
	}
	return uninstalled
}

func cloneClient(c *http.Client) *http.Client {
	if c == nil {
		return &http.Client{}
	}
	cp := *c
	return &cp
}

func (t *transport) next() http.RoundTripper {
	if t.base == nil {
		return http.DefaultTransport
	}
	return t.base
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	used := t.m.read(AccessKey)
	resp, err := t.send(req, body, used)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)

	access, err := t.m.renewAccess(req.Context(), used)
	if err != nil {
		return nil, err
	}

	// The replay goes straight to the base transport, never back through
	// RoundTrip, so a request is refreshed at most once. Its response goes
	// back to the caller whatever its status.
	return t.send(req, body, access)
}

func (t *transport) send(req *http.Request, body func() (io.ReadCloser, error), access string) (*http.Response, error) {
	out := req.Clone(req.Context())
	if body != nil {
		rc, err := body()
		if err != nil {
			return nil, err
		}
		out.Body = rc
	}
	if access != "" {
		(&oauth2.Token{AccessToken: access, TokenType: "Bearer"}).SetAuthHeader(out)
	}
	return t.next().RoundTrip(out)
}

// replayableBody returns a function yielding fresh copies of the request
// body, or nil for a bodiless request. The original body is closed.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		_ = req.Body.Close()
		return req.GetBody, nil
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
