package service

import (
	"context"
	"math"
	"sort"
	"time"

	"apptrack/internal/model"
	"apptrack/internal/repository"
)

// Rate is a counted ratio: Count hits out of Total, as a percentage
// rounded to two decimals. A zero Total yields 0.0, never an error.
type Rate struct {
	Count   int     `json:"count"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// DailyCount is one point of the application-velocity series.
type DailyCount struct {
	Date         time.Time `json:"date"`
	Applications int       `json:"applications"`
	Cumulative   int       `json:"cumulative"`
}

// Pace compares today's application count against the per-day average
// accumulated before today.
type Pace struct {
	Today   int     `json:"today"`
	Average float64 `json:"average"`
}

// CycleMetrics bundles every derived statistic for one cycle.
type CycleMetrics struct {
	ResponseRate   Rate         `json:"response_rate"`
	AcceptanceRate Rate         `json:"acceptance_rate"`
	Counts         []DailyCount `json:"counts"`
	Pace           Pace         `json:"pace"`
}

// MetricsService derives statistics from the record store's read path.
// Each call opens one scoped store session for the given user.
type MetricsService struct {
	manager *repository.Manager
	vocab   model.Vocabulary
}

func NewMetricsService(manager *repository.Manager, vocab model.Vocabulary) *MetricsService {
	return &MetricsService{manager: manager, vocab: vocab}
}

func (s *MetricsService) ResponseRate(ctx context.Context, user, cycle string) (Rate, error) {
	var rate Rate
	err := s.withEntries(ctx, user, cycle, func(entries []model.Entry) {
		rate = ResponseRate(entries, s.vocab)
	})
	return rate, err
}

func (s *MetricsService) AcceptanceRate(ctx context.Context, user, cycle string) (Rate, error) {
	var rate Rate
	err := s.withEntries(ctx, user, cycle, func(entries []model.Entry) {
		rate = AcceptanceRate(entries, s.vocab)
	})
	return rate, err
}

func (s *MetricsService) ApplicationCounts(ctx context.Context, user, cycle string) ([]DailyCount, error) {
	var counts []DailyCount
	err := s.withEntries(ctx, user, cycle, func(entries []model.Entry) {
		counts = ApplicationCounts(entries)
	})
	return counts, err
}

func (s *MetricsService) TodayVsAverage(ctx context.Context, user, cycle string) (Pace, error) {
	var pace Pace
	err := s.withEntries(ctx, user, cycle, func(entries []model.Entry) {
		pace = TodayVsAverage(entries, time.Now())
	})
	return pace, err
}

// Overview computes all four metrics in a single store session.
func (s *MetricsService) Overview(ctx context.Context, user, cycle string) (CycleMetrics, error) {
	var m CycleMetrics
	err := s.withEntries(ctx, user, cycle, func(entries []model.Entry) {
		m = CycleMetrics{
			ResponseRate:   ResponseRate(entries, s.vocab),
			AcceptanceRate: AcceptanceRate(entries, s.vocab),
			Counts:         ApplicationCounts(entries),
			Pace:           TodayVsAverage(entries, time.Now()),
		}
	})
	return m, err
}

func (s *MetricsService) withEntries(ctx context.Context, user, cycle string, fn func([]model.Entry)) error {
	return s.manager.With(ctx, user, func(st *repository.Store) error {
		entries, err := st.CycleEntries(ctx, cycle)
		if err != nil {
			return err
		}
		fn(entries)
		return nil
	})
}

// ResponseRate counts entries whose status moved past pending.
func ResponseRate(entries []model.Entry, vocab model.Vocabulary) Rate {
	responded := 0
	for _, e := range entries {
		if !vocab.IsPending(e.Status) {
			responded++
		}
	}
	return Rate{Count: responded, Total: len(entries), Percent: percent(responded, len(entries))}
}

// AcceptanceRate measures accepted outcomes against decided entries
// only. Applications still pending or at the interview stage stay out
// of the denominator so undecided work cannot dilute the rate.
func AcceptanceRate(entries []model.Entry, vocab model.Vocabulary) Rate {
	decided, accepted := 0, 0
	for _, e := range entries {
		if !vocab.IsDecided(e.Status) {
			continue
		}
		decided++
		if vocab.IsAccepted(e.Status) {
			accepted++
		}
	}
	return Rate{Count: accepted, Total: decided, Percent: percent(accepted, decided)}
}

// ApplicationCounts buckets entries by calendar day, ascending, with a
// running total alongside each day's count.
func ApplicationCounts(entries []model.Entry) []DailyCount {
	byDay := make(map[time.Time]int, len(entries))
	for _, e := range entries {
		byDay[day(e.Date)]++
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	counts := make([]DailyCount, 0, len(days))
	total := 0
	for _, d := range days {
		total += byDay[d]
		counts = append(counts, DailyCount{Date: d, Applications: byDay[d], Cumulative: total})
	}
	return counts
}

// TodayVsAverage compares today's application count against the mean
// per-day rate since the first application. Today's own entries are
// excluded from the mean's numerator while the day count runs from the
// first application date up to today, so the average answers "what did
// I do per day before today".
func TodayVsAverage(entries []model.Entry, now time.Time) Pace {
	counts := ApplicationCounts(entries)
	if len(counts) == 0 {
		return Pace{}
	}

	today := day(now)
	elapsed := int(today.Sub(counts[0].Date).Hours() / 24)

	var pace Pace
	last := counts[len(counts)-1]
	baseline := last.Cumulative
	if last.Date.Equal(today) {
		pace.Today = last.Applications
		if len(counts) >= 2 {
			baseline = counts[len(counts)-2].Cumulative
		}
	}
	if elapsed > 0 {
		pace.Average = round2(float64(baseline) / float64(elapsed))
	}
	return pace
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0.0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
