package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "northstar/internal/errors"
	"northstar/pkg/contracts/domain"
)

type fakeNode struct {
	Code      string
	Title     string
	StartTime time.Time
}

// fakeLister serves a fixed report list, optionally split across pages.
type fakeLister struct {
	nodes    []fakeNode
	pageSize int
	queries  int
}

func (f *fakeLister) Query(_ context.Context, _, _ string, variables map[string]interface{}, out interface{}) error {
	f.queries++
	page := variables["page"].(int)
	size := f.pageSize
	if size <= 0 {
		size = len(f.nodes)
		if size == 0 {
			size = 1
		}
	}

	lo := (page - 1) * size
	hi := lo + size
	if lo > len(f.nodes) {
		lo = len(f.nodes)
	}
	if hi > len(f.nodes) {
		hi = len(f.nodes)
	}

	data := make([]map[string]interface{}, 0, hi-lo)
	for _, n := range f.nodes[lo:hi] {
		data = append(data, map[string]interface{}{
			"code":      n.Code,
			"title":     n.Title,
			"startTime": float64(n.StartTime.UnixMilli()),
			"endTime":   float64(n.StartTime.Add(3 * time.Hour).UnixMilli()),
		})
	}

	payload := map[string]interface{}{
		"reportData": map[string]interface{}{
			"reports": map[string]interface{}{
				"data":           data,
				"has_more_pages": hi < len(f.nodes),
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// fakeCounter maps report code to death count.
type fakeCounter struct {
	counts map[string]int
	calls  int
}

func (f *fakeCounter) CountDeaths(_ context.Context, reportCode string, _ domain.Boss) (int, error) {
	f.calls++
	count, ok := f.counts[reportCode]
	if !ok {
		return 0, fmt.Errorf("unexpected report %s", reportCode)
	}
	return count, nil
}

func mustRange(t *testing.T, from, to string) domain.DateRange {
	t.Helper()
	start, err := time.Parse("2006-01-02", from)
	require.NoError(t, err)
	end, err := time.Parse("2006-01-02", to)
	require.NoError(t, err)
	rng, err := domain.NewDateRange(start, end)
	require.NoError(t, err)
	return rng
}

func at(t *testing.T, stamp string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, stamp)
	require.NoError(t, err)
	return ts
}

func TestSelectReports(t *testing.T) {
	boss := domain.Boss{Name: "X", EncounterID: 3135}

	t.Run("keeps the deadliest report per day", func(t *testing.T) {
		lister := &fakeLister{nodes: []fakeNode{
			{Code: "morning", Title: "Morning clear", StartTime: at(t, "2024-03-04T10:00:00Z")},
			{Code: "evening", Title: "Prog night", StartTime: at(t, "2024-03-04T19:00:00Z")},
			{Code: "next", Title: "Reclear", StartTime: at(t, "2024-03-05T19:00:00Z")},
		}}
		counter := &fakeCounter{counts: map[string]int{"morning": 2, "evening": 11, "next": 4}}

		locator := NewLocator(lister, counter, 100, nil, nil)
		selected, err := locator.SelectReports(context.Background(), 123, mustRange(t, "2024-03-01", "2024-03-07"), boss)

		require.NoError(t, err)
		require.Len(t, selected, 2)
		assert.Equal(t, "evening", selected[0].Code)
		assert.Equal(t, "2024-03-04", selected[0].DateString())
		assert.Equal(t, 11, selected[0].DeathCount)
		assert.Equal(t, "next", selected[1].Code)
	})

	t.Run("no reports in range", func(t *testing.T) {
		locator := NewLocator(&fakeLister{}, &fakeCounter{}, 100, nil, nil)

		_, err := locator.SelectReports(context.Background(), 123, mustRange(t, "2024-03-01", "2024-03-07"), boss)

		require.Error(t, err)
		assert.True(t, apperrors.IsNoData(err))
	})

	t.Run("reports without qualifying deaths", func(t *testing.T) {
		lister := &fakeLister{nodes: []fakeNode{
			{Code: "quiet", StartTime: at(t, "2024-03-04T19:00:00Z")},
		}}
		counter := &fakeCounter{counts: map[string]int{"quiet": 0}}

		locator := NewLocator(lister, counter, 100, nil, nil)
		_, err := locator.SelectReports(context.Background(), 123, mustRange(t, "2024-03-01", "2024-03-07"), boss)

		require.Error(t, err)
		assert.True(t, apperrors.IsNoData(err))
	})

	t.Run("reports outside the range are skipped", func(t *testing.T) {
		lister := &fakeLister{nodes: []fakeNode{
			{Code: "before", StartTime: at(t, "2024-02-28T20:00:00Z")},
			{Code: "inside", StartTime: at(t, "2024-03-02T20:00:00Z")},
		}}
		counter := &fakeCounter{counts: map[string]int{"inside": 5}}

		locator := NewLocator(lister, counter, 100, nil, nil)
		selected, err := locator.SelectReports(context.Background(), 123, mustRange(t, "2024-03-01", "2024-03-07"), boss)

		require.NoError(t, err)
		require.Len(t, selected, 1)
		assert.Equal(t, "inside", selected[0].Code)
		assert.Equal(t, 1, counter.calls, "out-of-range reports are never counted")
	})

	t.Run("pagination merges all pages", func(t *testing.T) {
		nodes := make([]fakeNode, 0, 5)
		counts := make(map[string]int, 5)
		for i := 0; i < 5; i++ {
			code := fmt.Sprintf("r%d", i)
			nodes = append(nodes, fakeNode{
				Code:      code,
				StartTime: at(t, "2024-03-01T19:00:00Z").AddDate(0, 0, i),
			})
			counts[code] = i + 1
		}
		lister := &fakeLister{nodes: nodes, pageSize: 2}
		counter := &fakeCounter{counts: counts}

		locator := NewLocator(lister, counter, 2, nil, nil)
		selected, err := locator.SelectReports(context.Background(), 123, mustRange(t, "2024-03-01", "2024-03-07"), boss)

		require.NoError(t, err)
		assert.Len(t, selected, 5)
		assert.Equal(t, 3, lister.queries, "5 nodes at page size 2 take 3 pages")
	})

	t.Run("counter errors propagate", func(t *testing.T) {
		lister := &fakeLister{nodes: []fakeNode{
			{Code: "bad", StartTime: at(t, "2024-03-04T19:00:00Z")},
		}}
		counter := &fakeCounter{counts: map[string]int{}}

		locator := NewLocator(lister, counter, 100, nil, nil)
		_, err := locator.SelectReports(context.Background(), 123, mustRange(t, "2024-03-01", "2024-03-07"), boss)

		assert.Error(t, err)
	})
}

// Ties and shuffled provider order must not affect which report wins.
func TestSelectReportsDeterministic(t *testing.T) {
	boss := domain.Boss{Name: "X", EncounterID: 3135}
	rng := mustRange(t, "2024-03-01", "2024-03-07")

	nodes := []fakeNode{
		{Code: "bbb", StartTime: at(t, "2024-03-04T19:00:00Z")},
		{Code: "aaa", StartTime: at(t, "2024-03-04T19:00:00Z")},
		{Code: "ccc", StartTime: at(t, "2024-03-04T10:00:00Z")},
	}
	counts := map[string]int{"aaa": 7, "bbb": 7, "ccc": 7}

	shuffle := rand.New(rand.NewSource(1))
	for i := 0; i < 25; i++ {
		shuffled := make([]fakeNode, len(nodes))
		copy(shuffled, nodes)
		shuffle.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		locator := NewLocator(&fakeLister{nodes: shuffled}, &fakeCounter{counts: counts}, 100, nil, nil)
		selected, err := locator.SelectReports(context.Background(), 123, rng, boss)

		require.NoError(t, err)
		require.Len(t, selected, 1)
		// Equal counts: earliest start wins regardless of listing order.
		assert.Equal(t, "ccc", selected[0].Code)
	}
}

func TestBeats(t *testing.T) {
	base := at(t, "2024-03-04T19:00:00Z")

	tests := []struct {
		name string
		a, b domain.ReportCandidate
		want bool
	}{
		{
			name: "higher count wins",
			a:    domain.ReportCandidate{Code: "z", DeathCount: 5, StartTime: base},
			b:    domain.ReportCandidate{Code: "a", DeathCount: 4, StartTime: base},
			want: true,
		},
		{
			name: "equal count earlier start wins",
			a:    domain.ReportCandidate{Code: "z", DeathCount: 5, StartTime: base.Add(-time.Hour)},
			b:    domain.ReportCandidate{Code: "a", DeathCount: 5, StartTime: base},
			want: true,
		},
		{
			name: "full tie falls back to code",
			a:    domain.ReportCandidate{Code: "a", DeathCount: 5, StartTime: base},
			b:    domain.ReportCandidate{Code: "b", DeathCount: 5, StartTime: base},
			want: true,
		},
		{
			name: "identical candidate does not beat itself",
			a:    domain.ReportCandidate{Code: "a", DeathCount: 5, StartTime: base},
			b:    domain.ReportCandidate{Code: "a", DeathCount: 5, StartTime: base},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, beats(tt.a, tt.b))
		})
	}
}
