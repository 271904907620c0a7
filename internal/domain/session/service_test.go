package session_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro-web3/helpdesk-client/internal/apierror"
	"github.com/astro-web3/helpdesk-client/internal/client"
	"github.com/astro-web3/helpdesk-client/internal/domain/session"
	"github.com/astro-web3/helpdesk-client/internal/token"
)

const userJSON = `{"id":"u1","email":"eve@example.com","name":"Eve","role":"user"}`

// csrfCounter serves csrf-1, csrf-2, ... and counts bootstrap calls.
type csrfCounter struct {
	calls atomic.Int32
	delay time.Duration
}

func (c *csrfCounter) handle(w http.ResponseWriter, _ *http.Request) {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	n := c.calls.Add(1)
	_, _ = w.Write([]byte(`{"csrfToken":"csrf-` + strconv.Itoa(int(n)) + `"}`))
}

type env struct {
	sessions session.Service
	store    *token.Store
	durable  token.Tier
	session  token.Tier
}

func newEnv(t *testing.T, mux *http.ServeMux) *env {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	durable, sessionTier := token.NewMemoryTier(), token.NewMemoryTier()
	store := token.NewStore(durable, sessionTier)
	api := client.New(client.Config{BaseURL: srv.URL}, store)
	return &env{
		sessions: session.NewService(api, store),
		store:    store,
		durable:  durable,
		session:  sessionTier,
	}
}

func tierRaw(t *testing.T, tier token.Tier) string {
	t.Helper()
	raw, err := tier.Get(context.Background())
	require.NoError(t, err)
	return raw
}

func TestLogin_Success(t *testing.T) {
	csrf := &csrfCounter{}
	var gotCSRFHeader string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		gotCSRFHeader = r.Header.Get(session.CSRFHeader)
		_, _ = w.Write([]byte(`{"authenticated":true,"token":"bearer-1","user":` + userJSON + `}`))
	})

	e := newEnv(t, mux)

	u, err := e.sessions.Login(context.Background(), "eve@example.com", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Eve", u.Name)
	assert.Equal(t, "csrf-1", gotCSRFHeader)
	assert.Equal(t, "bearer-1", tierRaw(t, e.session))
	assert.Empty(t, tierRaw(t, e.durable))
}

func TestLogin_RememberUsesDurableTier(t *testing.T) {
	csrf := &csrfCounter{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"authenticated":true,"token":"bearer-1","user":` + userJSON + `}`))
	})

	e := newEnv(t, mux)

	_, err := e.sessions.Login(context.Background(), "eve@example.com", "pw", true)
	require.NoError(t, err)
	assert.Equal(t, "bearer-1", tierRaw(t, e.durable))
	assert.Empty(t, tierRaw(t, e.session))
}

func TestLogin_EnvelopedBareUserResponse(t *testing.T) {
	csrf := &csrfCounter{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":` + userJSON + `}`))
	})

	e := newEnv(t, mux)

	u, err := e.sessions.Login(context.Background(), "eve@example.com", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestLogin_CSRFInvalidRetriedExactlyOnceWithFreshToken(t *testing.T) {
	csrf := &csrfCounter{}
	var posts atomic.Int32
	var headers []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get(session.CSRFHeader))
		mu.Unlock()
		if posts.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":"CSRF_INVALID","message":"stale token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"authenticated":true,"user":` + userJSON + `}`))
	})

	e := newEnv(t, mux)

	u, err := e.sessions.Login(context.Background(), "eve@example.com", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, int32(2), csrf.calls.Load(), "exactly one re-bootstrap")
	assert.Equal(t, int32(2), posts.Load(), "exactly one retry")
	require.Len(t, headers, 2)
	assert.Equal(t, "csrf-1", headers[0])
	assert.Equal(t, "csrf-2", headers[1], "retry must carry the fresh token")
}

func TestLogin_CSRFInvalidTwiceIsNotRetriedAgain(t *testing.T) {
	csrf := &csrfCounter{}
	var posts atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"CSRF_INVALID","message":"still stale"}`))
	})

	e := newEnv(t, mux)

	_, err := e.sessions.Login(context.Background(), "eve@example.com", "pw", false)
	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, "CSRF_INVALID", apiErr.Code)
	assert.Equal(t, int32(2), posts.Load(), "retry is bounded to one attempt")
	assert.Equal(t, int32(2), csrf.calls.Load())
}

func TestLogin_OtherServerCodeNotRetried(t *testing.T) {
	csrf := &csrfCounter{}
	var posts atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"AUTH_FORBIDDEN","message":"account locked"}`))
	})

	e := newEnv(t, mux)

	_, err := e.sessions.Login(context.Background(), "eve@example.com", "pw", false)
	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, "AUTH_FORBIDDEN", apiErr.Code)
	assert.Equal(t, int32(1), posts.Load())
	assert.Equal(t, int32(1), csrf.calls.Load())
}

func TestLogin_BootstrapMissingTokenField(t *testing.T) {
	var posts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
	})

	e := newEnv(t, mux)

	_, err := e.sessions.Login(context.Background(), "eve@example.com", "pw", false)
	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindBadResponse, apiErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, apiErr.Details, "csrfToken")
	assert.Equal(t, int32(0), posts.Load(), "no state-changing call without a token")
}

func TestLogin_CSRFTokenCachedAcrossCalls(t *testing.T) {
	csrf := &csrfCounter{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"authenticated":true,"user":` + userJSON + `}`))
	})

	e := newEnv(t, mux)
	ctx := context.Background()

	_, err := e.sessions.Login(ctx, "eve@example.com", "pw", false)
	require.NoError(t, err)
	_, err = e.sessions.Login(ctx, "eve@example.com", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), csrf.calls.Load(), "second call reuses the cached token")
}

func TestLogin_ConcurrentBootstrapsCollapse(t *testing.T) {
	csrf := &csrfCounter{delay: 150 * time.Millisecond}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"authenticated":true,"user":` + userJSON + `}`))
	})

	e := newEnv(t, mux)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.sessions.Login(context.Background(), "eve@example.com", "pw", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), csrf.calls.Load(), "concurrent first callers share one bootstrap")
}

func TestRegister_BareUserResponse(t *testing.T) {
	csrf := &csrfCounter{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(userJSON))
	})

	e := newEnv(t, mux)

	u, err := e.sessions.Register(context.Background(), "eve@example.com", "pw", "Eve")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestRefresh_KeepsPersistenceTier(t *testing.T) {
	csrf := &csrfCounter{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"authenticated":true,"token":"bearer-2"}`))
	})

	e := newEnv(t, mux)
	ctx := context.Background()
	require.NoError(t, e.store.Write(ctx, "bearer-1", true))

	require.NoError(t, e.sessions.Refresh(ctx))
	assert.Equal(t, "bearer-2", tierRaw(t, e.durable))
	assert.Empty(t, tierRaw(t, e.session))
}

func TestRefresh_Rejected(t *testing.T) {
	csrf := &csrfCounter{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"authenticated":false}`))
	})

	e := newEnv(t, mux)

	err := e.sessions.Refresh(context.Background())
	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindUnauthorized, apiErr.Kind)
}

func TestLogout_ClearsLocalStateEvenWhenServerSays401(t *testing.T) {
	csrf := &csrfCounter{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"no session"}`))
	})

	e := newEnv(t, mux)
	ctx := context.Background()
	require.NoError(t, e.store.Write(ctx, "bearer-1", false))

	require.NoError(t, e.sessions.Logout(ctx, false))

	cred, err := e.store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestLogout_Success(t *testing.T) {
	csrf := &csrfCounter{}
	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf", csrf.handle)
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"success":true,"message":"bye"}`))
	})

	e := newEnv(t, mux)
	ctx := context.Background()
	require.NoError(t, e.store.Write(ctx, "bearer-1", false))

	require.NoError(t, e.sessions.Logout(ctx, true))
	assert.Contains(t, string(gotBody), `"allSessions":true`)
}

func TestWhoAmI_ConcurrentCallsShareOneRequest(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		time.Sleep(150 * time.Millisecond)
		_, _ = w.Write([]byte(userJSON))
	})

	e := newEnv(t, mux)
	ctx := context.Background()
	require.NoError(t, e.store.Write(ctx, "bearer-1", false))

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := e.sessions.WhoAmI(ctx)
			assert.NoError(t, err)
			if u != nil {
				assert.Equal(t, "u1", u.ID)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), hits.Load(), "concurrent identity fetches deduplicate")

	// The slot cleared when the shared call settled; the next call is a
	// fresh network request.
	_, err := e.sessions.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestWhoAmI_RequiresCredential(t *testing.T) {
	mux := http.NewServeMux()
	e := newEnv(t, mux)

	_, err := e.sessions.WhoAmI(context.Background())
	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindUnauthorized, apiErr.Kind)
}
