package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/creaturegame/internal/factory"
	"github.com/mcoot/creaturegame/internal/services/session"
	"github.com/mcoot/creaturegame/internal/testutil"
)

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSession_WithoutCookieBindsNothing(t *testing.T) {
	app := factory.NewTestApp()
	defer app.Close()

	var bound []*session.Controller
	h := Session(app.Registry, DefaultSessionConfig(), testutil.NopLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bound = append(bound, GetController(r.Context()))
		}))

	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Nil(t, sessionCookie(t, rec))
	}

	assert.Len(t, bound, 100)
	assert.Nil(t, bound[0])
	assert.Equal(t, 0, app.Registry.Len())
}

func TestEnsureSession_CreatesAndReusesController(t *testing.T) {
	app := factory.NewTestApp()
	defer app.Close()

	var seen []*session.Controller
	var tokens []string
	cfg := DefaultSessionConfig()
	h := Session(app.Registry, cfg, testutil.NopLogger())(EnsureSession(app.Registry, cfg)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, GetController(r.Context()))
			tokens = append(tokens, GetSessionToken(r.Context()))
		})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int(app.Registry.TTL().Seconds()), cookie.MaxAge)
	require.NotNil(t, seen[0])
	assert.Equal(t, cookie.Value, tokens[0])

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie.Value})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Nil(t, sessionCookie(t, rec), "existing session should not be re-issued")
	assert.Same(t, seen[0], seen[1])
	assert.Equal(t, 1, app.Registry.Len())
}

func TestSession_UnknownTokenIsCleared(t *testing.T) {
	app := factory.NewTestApp()
	defer app.Close()

	var bound *session.Controller
	cfg := SessionConfig{CookieName: "sid", Secure: true}
	h := Session(app.Registry, cfg, testutil.NopLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bound = GetController(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "stale-token"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Nil(t, bound)
	assert.Equal(t, 0, app.Registry.Len())
}

func TestEnsureSession_ReplacesUnknownToken(t *testing.T) {
	app := factory.NewTestApp()
	defer app.Close()

	var token string
	cfg := SessionConfig{CookieName: "sid", Secure: true}
	h := Session(app.Registry, cfg, testutil.NopLogger())(EnsureSession(app.Registry, cfg)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token = GetSessionToken(r.Context())
		})))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "stale-token"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var issued *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" && c.MaxAge > 0 {
			issued = c
		}
	}
	require.NotNil(t, issued)
	assert.True(t, issued.Secure)
	assert.NotEqual(t, "stale-token", issued.Value)
	assert.Equal(t, issued.Value, token)
}

func TestCurrentSnapshot_WithoutController(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	snap := CurrentSnapshot(req.Context())
	assert.Equal(t, session.StateUnauthenticated, snap.State)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Identity)
}

func TestFlash(t *testing.T) {
	set := httptest.NewRecorder()
	SetFlash(set, "success", "Profile saved: all good")

	var cookie *http.Cookie
	for _, c := range set.Result().Cookies() {
		if c.Name == flashCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	var got []string
	h := Flash()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f := GetFlash(r.Context()); f != nil {
			got = append(got, f.Type, f.Message)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, []string{"success", "Profile saved: all good"}, got)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestParseFlash_NoType(t *testing.T) {
	f := parseFlash("plain message")
	assert.Equal(t, "info", f.Type)
	assert.Equal(t, "plain message", f.Message)
}
