package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathlight-web/internal/apiclient"
	"pathlight-web/pkg/redis"
	"pathlight-web/pkg/tokenstore"
)

const dashboardBody = `{
	"info": {
		"user": {"id": "u1", "email": "an@example.com", "full_name": "An"},
		"courses": [{"id": "c1", "title": "Go", "progress": 40}],
		"quiz_results": [
			{"quiz_id": "q1", "score": 8, "total": 10},
			{"quiz_id": "q2", "score": 3, "total": 6}
		],
		"activity": [
			{"date": "2024-03-13", "count": 2},
			{"date": "2024-03-12", "count": 1}
		]
	}
}`

var fixedNow = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": fixedNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

type backend struct {
	srv   *httptest.Server
	calls atomic.Int32
}

func newBackend(t *testing.T, handler http.HandlerFunc) *backend {
	t.Helper()
	b := &backend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) client(tok string) *apiclient.Client {
	store := tokenstore.NewMemoryStore()
	_ = store.SetToken(tok, false)
	return apiclient.New(b.srv.URL, 5*time.Second, nil).For(store)
}

func newService(cache Cache, now *time.Time, timeout time.Duration) *Service {
	return NewService(cache, nil, Options{
		Timeout:      timeout,
		Freshness:    5 * time.Minute,
		HeatmapWeeks: 4,
		Now:          func() time.Time { return *now },
	})
}

func TestShape(t *testing.T) {
	v, err := Shape(json.RawMessage(`{
		"profile": {"id": "u1"},
		"enrolled_courses": [{"id": "c1"}, {"id": "c2"}],
		"recent_results": [{"quiz_id": "q1", "score": 5, "total": 10}, {"quiz_id": "q2", "score": 1, "total": 0}]
	}`))
	require.NoError(t, err)

	require.NotNil(t, v.User)
	assert.Equal(t, "u1", v.User.ID)
	assert.Len(t, v.Courses, 2)
	assert.Equal(t, 2, v.Stats.CoursesEnrolled)
	assert.Equal(t, 2, v.Stats.QuizzesTaken)
	assert.InDelta(t, 50.0, v.Stats.AverageScore, 0.001)
	assert.NotNil(t, v.Activity)
}

func TestShape_ExplicitStatsWin(t *testing.T) {
	v, err := Shape(json.RawMessage(`{"stats": {"courses_enrolled": 9, "average_score": 71.5}, "courses": []}`))
	require.NoError(t, err)

	assert.Equal(t, 9, v.Stats.CoursesEnrolled)
	assert.Equal(t, 71.5, v.Stats.AverageScore)
	assert.NotNil(t, v.Courses)
	assert.NotNil(t, v.RecentResults)
}

func TestShape_Invalid(t *testing.T) {
	_, err := Shape(json.RawMessage(`[1,2,3]`))
	assert.Error(t, err)
}

func TestService_Load_CachesWithinFreshnessWindow(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/dashboard", r.URL.Path)
		_, _ = w.Write([]byte(dashboardBody))
	})
	now := fixedNow
	svc := newService(NewMemoryCache(5 * time.Minute), &now, time.Second)
	tok := signedToken(t, "u1")

	v, env := svc.Load(context.Background(), b.client(tok), tok)
	require.True(t, env.OK())
	require.NotNil(t, v)
	assert.False(t, v.Cached)
	assert.Equal(t, "u1", v.User.ID)
	assert.InDelta(t, 65.0, v.Stats.AverageScore, 0.001)
	assert.Equal(t, 2, v.Stats.StreakDays)
	assert.Len(t, v.Heatmap.Weeks, 4)
	assert.Equal(t, 3, v.Heatmap.Total)

	now = fixedNow.Add(4 * time.Minute)
	v, env = svc.Load(context.Background(), b.client(tok), tok)
	require.True(t, env.OK())
	assert.True(t, v.Cached)
	assert.Equal(t, int32(1), b.calls.Load())

	now = fixedNow.Add(5 * time.Minute)
	v, _ = svc.Load(context.Background(), b.client(tok), tok)
	assert.False(t, v.Cached)
	assert.Equal(t, int32(2), b.calls.Load())
}

func TestService_Load_FetchesActivityWhenMissing(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/dashboard":
			_, _ = w.Write([]byte(`{"courses": []}`))
		case "/api/users/activity":
			_, _ = w.Write([]byte(`[{"date": "2024-03-13", "count": 4}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	now := fixedNow
	svc := newService(nil, &now, time.Second)
	tok := signedToken(t, "u1")

	v, env := svc.Load(context.Background(), b.client(tok), tok)
	require.True(t, env.OK())
	require.Len(t, v.Activity, 1)
	assert.Equal(t, 4, v.Heatmap.Max)
	assert.Equal(t, 1, v.Stats.StreakDays)
}

func TestService_Load_TimeoutIsDistinct(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	now := fixedNow
	svc := newService(NewMemoryCache(5 * time.Minute), &now, 50*time.Millisecond)
	store := tokenstore.NewMemoryStore()
	tok := signedToken(t, "u1")
	require.NoError(t, store.SetToken(tok, true))

	client := apiclient.New(b.srv.URL, 5*time.Second, nil).For(store)
	v, env := svc.Load(context.Background(), client, tok)

	assert.Nil(t, v)
	assert.Equal(t, apiclient.StatusTimeout, env.Status)
	got, ok := store.GetToken()
	assert.True(t, ok)
	assert.Equal(t, tok, got)
}

func TestService_Load_UnauthorizedPassesThrough(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Token expired"}`))
	})
	now := fixedNow
	svc := newService(NewMemoryCache(5 * time.Minute), &now, time.Second)
	tok := signedToken(t, "u1")

	v, env := svc.Load(context.Background(), b.client(tok), tok)
	assert.Nil(t, v)
	assert.True(t, env.Unauthorized())
}

func TestService_Invalidate(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dashboardBody))
	})
	now := fixedNow
	svc := newService(NewMemoryCache(5 * time.Minute), &now, time.Second)
	tok := signedToken(t, "u1")

	svc.Load(context.Background(), b.client(tok), tok)
	svc.Invalidate(context.Background(), tok)
	v, _ := svc.Load(context.Background(), b.client(tok), tok)

	assert.False(t, v.Cached)
	assert.Equal(t, int32(2), b.calls.Load())
}

func TestService_CacheKey(t *testing.T) {
	now := fixedNow
	svc := newService(nil, &now, time.Second)

	structured := svc.CacheKey(signedToken(t, "u42"))
	assert.Contains(t, structured, "tok:")
	assert.NotContains(t, structured, "u42")

	opaque := svc.CacheKey("opaque-session-id")
	assert.Contains(t, opaque, "tok:")
	assert.Equal(t, opaque, svc.CacheKey("opaque-session-id"))
	assert.NotEqual(t, opaque, svc.CacheKey("other-session-id"))
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	cache := NewRedisCache(client, time.Hour, nil)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "tok:u1")
	require.NoError(t, err)
	assert.False(t, ok)

	entry := Entry{StoredAt: fixedNow, Data: json.RawMessage(`{"stats":{}}`)}
	require.NoError(t, cache.Set(ctx, "tok:u1", entry))
	assert.True(t, mr.Exists("pathlight:prod:dashboard:tok:u1"))

	got, ok, err := cache.Get(ctx, "tok:u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.StoredAt.Equal(fixedNow))
	assert.JSONEq(t, `{"stats":{}}`, string(got.Data))

	require.NoError(t, mr.Set("pathlight:prod:dashboard:tok:bad", "not json"))
	_, ok, err = cache.Get(ctx, "tok:bad")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Delete(ctx, "tok:u1"))
	assert.False(t, mr.Exists("pathlight:prod:dashboard:tok:u1"))
}

func TestService_Load_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := redis.NewClient("redis://"+mr.Addr(), "development", nil)
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dashboardBody))
	})
	now := fixedNow
	svc := newService(NewRedisCache(rc, time.Hour, nil), &now, time.Second)
	tok := signedToken(t, "u1")

	svc.Load(context.Background(), b.client(tok), tok)
	assert.True(t, mr.Exists("pathlight:staging:dashboard:"+svc.CacheKey(tok)))

	v, _ := svc.Load(context.Background(), b.client(tok), tok)
	assert.True(t, v.Cached)
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestService_Load_SameSubjectOtherSignatureMissesCache(t *testing.T) {
	var lastAuth atomic.Value
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(dashboardBody))
	})
	now := fixedNow
	svc := newService(NewMemoryCache(5*time.Minute), &now, time.Second)

	owner := signedToken(t, "victim")
	v, env := svc.Load(context.Background(), b.client(owner), owner)
	require.NotNil(t, v)
	require.Equal(t, 200, env.Status)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "victim",
		"exp": fixedNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("other-key"))
	require.NoError(t, err)
	require.NotEqual(t, owner, forged)
	assert.NotEqual(t, svc.CacheKey(owner), svc.CacheKey(forged))

	v, _ = svc.Load(context.Background(), b.client(forged), forged)
	require.NotNil(t, v)
	assert.False(t, v.Cached)
	assert.Equal(t, int32(2), b.calls.Load())
	assert.Equal(t, "Bearer "+forged, lastAuth.Load())
}

func TestMemoryCache_DropsStaleEntriesOnSet(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "old", Entry{StoredAt: fixedNow}))
	require.NoError(t, cache.Set(ctx, "recent", Entry{StoredAt: fixedNow.Add(45 * time.Second)}))
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Set(ctx, "new", Entry{StoredAt: fixedNow.Add(90 * time.Second)}))
	assert.Equal(t, 2, cache.Len())

	_, ok, err := cache.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, "recent")
	assert.True(t, ok)

	forever := NewMemoryCache(0)
	require.NoError(t, forever.Set(ctx, "a", Entry{StoredAt: fixedNow}))
	require.NoError(t, forever.Set(ctx, "b", Entry{StoredAt: fixedNow.Add(24 * time.Hour)}))
	assert.Equal(t, 2, forever.Len())
}
