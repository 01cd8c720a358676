// Package dashboard shapes the backend dashboard payload into a View,
// caches it per session token and renders the activity heatmap.
package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"pathlight-web/internal/apiclient"
	"pathlight-web/internal/domain"
	"pathlight-web/pkg/logger"
)

// DefaultHeatmapWeeks is the width of the activity grid
const DefaultHeatmapWeeks = 26

// Stats are the headline numbers of the dashboard
type Stats struct {
	CoursesEnrolled int     `json:"courses_enrolled"`
	QuizzesTaken    int     `json:"quizzes_taken"`
	AverageScore    float64 `json:"average_score"` // percent, 0..100
	StreakDays      int     `json:"streak_days"`
}

// View is the shaped dashboard
type View struct {
	User          *domain.User         `json:"user,omitempty"`
	Stats         Stats                `json:"stats"`
	Courses       []domain.Course      `json:"courses"`
	RecentResults []domain.QuizResult  `json:"recent_results"`
	Activity      []domain.ActivityDay `json:"activity"`
	Heatmap       Heatmap              `json:"heatmap"`
	Cached        bool                 `json:"cached"`
}

// rawDashboard accepts the field spellings the backend has used
type rawDashboard struct {
	User           *domain.User         `json:"user"`
	Profile        *domain.User         `json:"profile"`
	Stats          *Stats               `json:"stats"`
	Courses        []domain.Course      `json:"courses"`
	EnrolledCourse []domain.Course      `json:"enrolled_courses"`
	RecentResults  []domain.QuizResult  `json:"recent_results"`
	QuizResults    []domain.QuizResult  `json:"quiz_results"`
	Activity       []domain.ActivityDay `json:"activity"`
}

// Shape normalizes a dashboard payload. Missing stats are derived from the
// lists; missing lists become empty slices.
func Shape(raw json.RawMessage) (*View, error) {
	var in rawDashboard
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode dashboard: %w", err)
	}

	v := &View{
		User:          in.User,
		Courses:       firstNonEmpty(in.Courses, in.EnrolledCourse),
		RecentResults: firstNonEmpty(in.RecentResults, in.QuizResults),
		Activity:      in.Activity,
	}
	if v.User == nil {
		v.User = in.Profile
	}
	if v.Courses == nil {
		v.Courses = []domain.Course{}
	}
	if v.RecentResults == nil {
		v.RecentResults = []domain.QuizResult{}
	}
	if v.Activity == nil {
		v.Activity = []domain.ActivityDay{}
	}

	if in.Stats != nil {
		v.Stats = *in.Stats
	} else {
		v.Stats = deriveStats(v)
	}
	return v, nil
}

func firstNonEmpty[T any](lists ...[]T) []T {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

func deriveStats(v *View) Stats {
	s := Stats{
		CoursesEnrolled: len(v.Courses),
		QuizzesTaken:    len(v.RecentResults),
	}
	var sum float64
	var scored int
	for _, r := range v.RecentResults {
		if r.Total <= 0 {
			continue
		}
		sum += r.Score / r.Total * 100
		scored++
	}
	if scored > 0 {
		s.AverageScore = sum / float64(scored)
	}
	return s
}

// Streak counts consecutive active days ending today or yesterday
func Streak(days []domain.ActivityDay, now time.Time) int {
	active := make(map[string]bool, len(days))
	for _, d := range days {
		if d.Count > 0 {
			active[d.Date] = true
		}
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !active[day.Format(dateLayout)] {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for active[day.Format(dateLayout)] {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

// Options configures a Service
type Options struct {
	Timeout      time.Duration
	Freshness    time.Duration
	HeatmapWeeks int
	Now          func() time.Time
}

// Service loads dashboards through a cache
type Service struct {
	cache  Cache
	logger *logger.Logger
	opts   Options
}

// NewService creates a dashboard service. A nil cache disables caching.
func NewService(cache Cache, log *logger.Logger, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Freshness <= 0 {
		opts.Freshness = 5 * time.Minute
	}
	if opts.HeatmapWeeks <= 0 {
		opts.HeatmapWeeks = DefaultHeatmapWeeks
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{cache: cache, logger: log, opts: opts}
}

// Load returns the dashboard for the holder of tok. client must already
// carry tok. On failure the envelope is returned as-is: a timeout keeps its
// own status and a 401 is left for the session guard to act on.
func (s *Service) Load(ctx context.Context, client *apiclient.Client, tok string) (*View, *apiclient.Envelope) {
	key := s.CacheKey(tok)
	now := s.opts.Now()

	if v := s.cached(ctx, key, now); v != nil {
		return v, &apiclient.Envelope{Status: 200}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	env := client.Dashboard(callCtx)
	if !env.OK() {
		s.logger.WithFields(map[string]interface{}{
			"status": env.Status,
			"kind":   env.Kind(),
		}).Warn("Dashboard load failed")
		return nil, env
	}

	v, err := Shape(env.Payload())
	if err != nil {
		s.logger.WithError(err).Warn("Dashboard payload did not shape")
		return nil, &apiclient.Envelope{Status: env.Status, Error: err.Error()}
	}

	if len(v.Activity) == 0 {
		s.loadActivity(callCtx, client, v)
	}

	s.store(ctx, key, v, now)
	s.decorate(v, now)
	return v, env
}

// Invalidate drops the cached dashboard for tok
func (s *Service) Invalidate(ctx context.Context, tok string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.CacheKey(tok)); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate dashboard cache")
	}
}

// CacheKey keys the cache by a digest of the whole token. Claims are never
// verified here, so only the exact credential may address an entry.
func (s *Service) CacheKey(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return "tok:" + hex.EncodeToString(sum[:])
}

func (s *Service) cached(ctx context.Context, key string, now time.Time) *View {
	if s.cache == nil {
		return nil
	}
	entry, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).Warn("Dashboard cache read failed")
		return nil
	}
	if !ok || !entry.Fresh(now, s.opts.Freshness) {
		return nil
	}

	var v View
	if err := json.Unmarshal(entry.Data, &v); err != nil {
		return nil
	}
	v.Cached = true
	s.decorate(&v, now)
	return &v
}

func (s *Service) store(ctx context.Context, key string, v *View, now time.Time) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, Entry{StoredAt: now, Data: data}); err != nil {
		s.logger.WithError(err).Warn("Dashboard cache write failed")
	}
}

func (s *Service) loadActivity(ctx context.Context, client *apiclient.Client, v *View) {
	env := client.Activity(ctx)
	if !env.OK() {
		return
	}
	var days []domain.ActivityDay
	if err := env.Decode(&days); err != nil {
		s.logger.WithError(err).Debug("Activity payload ignored")
		return
	}
	v.Activity = days
}

// decorate fills the fields that depend on the current day
func (s *Service) decorate(v *View, now time.Time) {
	v.Heatmap = BuildHeatmap(v.Activity, now, s.opts.HeatmapWeeks)
	if v.Stats.StreakDays == 0 {
		v.Stats.StreakDays = Streak(v.Activity, now)
	}
}
