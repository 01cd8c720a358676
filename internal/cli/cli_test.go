package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathlight-web/internal/config"
	"pathlight-web/internal/container"
	"pathlight-web/internal/dashboard"
	"pathlight-web/internal/domain"
	"pathlight-web/pkg/logger"
	"pathlight-web/pkg/tokenstore"
)

func newTestApp(t *testing.T, backend http.HandlerFunc, store tokenstore.Store) (*App, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Environment:          "test",
		BackendURL:           srv.URL,
		RequestTimeout:       5 * time.Second,
		DashboardTimeout:     time.Second,
		DashboardCacheTTL:    time.Minute,
		SessionCheckInterval: time.Minute,
		Home:                 t.TempDir(),
	}
	c, err := container.New(cfg, logger.NewNop())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &App{
		Container: c,
		Store:     store,
		In:        strings.NewReader(""),
		Out:       out,
		ReadPassword: func(int) ([]byte, error) {
			return []byte("secret-pass"), nil
		},
	}, out
}

func run(app *App, args ...string) error {
	return app.Run(args)
}

func jwtToken(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	return s
}

func TestSignIn_StoresToken(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	app, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/signin", r.URL.Path)
		var req domain.SignInRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "an@example.com", req.Email)
		assert.Equal(t, "secret-pass", req.Password)
		_, _ = w.Write([]byte(`{"access_token":"abc"}`))
	}, store)

	require.NoError(t, run(app, "signin", "an@example.com", "--remember"))

	tok, ok := store.GetToken()
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)
	assert.True(t, store.IsRemembered())
	assert.Contains(t, out.String(), "Signed in as an@example.com")
}

func TestSignIn_PromptsForEmail(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	app, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"info":{"token":"legacy"}}`))
	}, store)
	app.In = strings.NewReader("an@example.com\n")

	require.NoError(t, run(app, "signin"))

	tok, _ := store.GetToken()
	assert.Equal(t, "legacy", tok)
	assert.False(t, store.IsRemembered())
	assert.Contains(t, out.String(), "this run only")
}

func TestSignIn_WrongPasswordLeavesTokenAlone(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.SetToken("previous", true))
	app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
	}, store)

	err := run(app, "signin", "an@example.com")
	require.Error(t, err)
	assert.Equal(t, "Email hoặc mật khẩu không đúng", err.Error())

	tok, ok := store.GetToken()
	assert.True(t, ok)
	assert.Equal(t, "previous", tok)
}

func TestSignIn_PasswordReadFails(t *testing.T) {
	app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	}, tokenstore.NewMemoryStore())
	app.ReadPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }

	err := run(app, "signin", "an@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a terminal")
}

func TestSignOut_RemovesToken(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.SetToken("abc", true))
	app, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {}, store)

	require.NoError(t, run(app, "signout"))
	_, ok := store.GetToken()
	assert.False(t, ok)
	assert.Contains(t, out.String(), "Signed out")

	// idempotent
	require.NoError(t, run(app, "signout"))
}

func TestWhoAmI(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		store := tokenstore.NewMemoryStore()
		require.NoError(t, store.SetToken("abc", true))
		app, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/users/me", r.URL.Path)
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"info":{"email":"an@example.com","full_name":"An","email_verified":true}}`))
		}, store)

		require.NoError(t, run(app, "whoami"))
		assert.Contains(t, out.String(), "an@example.com")
		assert.Contains(t, out.String(), "An")
		assert.Contains(t, out.String(), "opaque")
	})

	t.Run("no token", func(t *testing.T) {
		app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("backend must not be called")
		}, tokenstore.NewMemoryStore())
		assert.ErrorIs(t, run(app, "whoami"), ErrNotSignedIn)
	})

	t.Run("expired token is cleared", func(t *testing.T) {
		store := tokenstore.NewMemoryStore()
		require.NoError(t, store.SetToken(jwtToken(t, time.Now().Add(-time.Hour)), true))
		app, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {}, store)

		assert.ErrorIs(t, run(app, "whoami"), ErrNotSignedIn)
		_, ok := store.GetToken()
		assert.False(t, ok)
		assert.Contains(t, out.String(), "Session expired")
	})

	t.Run("backend 401 clears token", func(t *testing.T) {
		store := tokenstore.NewMemoryStore()
		require.NoError(t, store.SetToken("abc", true))
		app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}, store)

		assert.ErrorIs(t, run(app, "whoami"), ErrNotSignedIn)
		_, ok := store.GetToken()
		assert.False(t, ok)
	})
}

func TestDashboard(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.SetToken(jwtToken(t, time.Now().Add(time.Hour)), true))
	today := time.Now().Format("2006-01-02")
	app, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/dashboard", r.URL.Path)
		_, _ = w.Write([]byte(`{"info":{
			"user":{"email":"an@example.com","full_name":"An"},
			"courses":[{"id":"c1","title":"Go basics","progress":40}],
			"activity":[{"date":"` + today + `","count":3}]
		}}`))
	}, store)

	require.NoError(t, run(app, "dashboard"))
	text := out.String()
	assert.Contains(t, text, "An")
	assert.Contains(t, text, "Go basics")
	assert.Contains(t, text, "Courses enrolled: 1")
	assert.Contains(t, text, "3 activities")

	out.Reset()
	require.NoError(t, run(app, "dashboard", "--json"))
	var v dashboard.View
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.True(t, v.Cached)
	assert.Equal(t, 1, v.Stats.CoursesEnrolled)
}

func TestDashboard_TimeoutKeepsToken(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	tok := jwtToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.SetToken(tok, true))
	app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, store)

	err := run(app, "dashboard")
	require.Error(t, err)
	assert.Equal(t, "Mạng chậm, vui lòng thử lại", err.Error())

	got, ok := store.GetToken()
	assert.True(t, ok)
	assert.Equal(t, tok, got)
}

func TestWatch(t *testing.T) {
	t.Run("reports expiry", func(t *testing.T) {
		store := tokenstore.NewMemoryStore()
		require.NoError(t, store.SetToken(jwtToken(t, time.Now().Add(-time.Minute)), true))
		app, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {}, store)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		assert.ErrorIs(t, app.watch(ctx, 10*time.Millisecond, nil), ErrNotSignedIn)
		assert.Contains(t, out.String(), "Session expired")
	})

	t.Run("stops with context while signed in", func(t *testing.T) {
		store := tokenstore.NewMemoryStore()
		require.NoError(t, store.SetToken(jwtToken(t, time.Now().Add(time.Hour)), true))
		app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {}, store)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.NoError(t, app.watch(ctx, 10*time.Millisecond, nil))
	})

	t.Run("recheck picks up sign-out between ticks", func(t *testing.T) {
		store := tokenstore.NewMemoryStore()
		require.NoError(t, store.SetToken("abc", true))
		app, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {}, store)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		recheck := make(chan struct{})
		done := make(chan error, 1)
		go func() { done <- app.watch(ctx, time.Hour, recheck) }()

		// let the first check run before the token goes away
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, store.RemoveToken())
		select {
		case recheck <- struct{}{}:
		case <-time.After(time.Second):
		}

		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrNotSignedIn)
			assert.Contains(t, out.String(), "Not signed in")
		case <-ctx.Done():
			t.Fatal("watch did not react to recheck")
		}
	})
}

func TestBoltStore_SurvivesRuns(t *testing.T) {
	app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/signin":
			_, _ = w.Write([]byte(`{"access_token":"abc"}`))
		case "/api/users/me":
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"email":"an@example.com"}`))
		}
	}, nil)

	require.NoError(t, run(app, "signin", "an@example.com", "--remember"))
	assert.Nil(t, app.Store)

	require.NoError(t, run(app, "whoami"))
	require.NoError(t, run(app, "signout"))
	assert.ErrorIs(t, run(app, "whoami"), ErrNotSignedIn)
	assert.Nil(t, app.Store)
}

func TestRenderHeatmap(t *testing.T) {
	hm := dashboard.Heatmap{Weeks: [][]dashboard.HeatmapCell{
		{{Level: 0}, {Level: 1}, {Level: 2}, {Level: 3}, {Level: 4}, {Future: true}, {Future: true}},
	}}
	rows := strings.Split(strings.TrimRight(RenderHeatmap(hm), "\n"), "\n")
	require.Len(t, rows, 7)
	assert.Equal(t, "·", rows[0])
	assert.Equal(t, "█", rows[4])
	assert.Equal(t, " ", rows[5])
}
