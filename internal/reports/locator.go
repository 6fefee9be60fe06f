package reports

import (
	"context"
	"log/slog"
	"sort"
	"time"

	apperrors "northstar/internal/errors"
	"northstar/internal/infrastructure"
	"northstar/pkg/contracts/domain"
)

// ReportLister is the slice of the API client the locator needs.
type ReportLister interface {
	Query(ctx context.Context, operation, query string, variables map[string]interface{}, out interface{}) error
}

// DeathCounter resolves the boss-scoped death count of one report,
// used to rank same-day candidates. The pipeline binds boss, ability
// and extraction options into its implementation.
type DeathCounter interface {
	CountDeaths(ctx context.Context, reportCode string, boss domain.Boss) (int, error)
}

const guildReportsQuery = `
query ($guildID: Int!, $startTime: Float!, $endTime: Float!, $limit: Int!, $page: Int!) {
  reportData {
    reports(guildID: $guildID, startTime: $startTime, endTime: $endTime, limit: $limit, page: $page) {
      data {
        code
        title
        startTime
        endTime
      }
      has_more_pages
    }
  }
}`

// reportsData mirrors the guild reports query response.
type reportsData struct {
	ReportData struct {
		Reports struct {
			Data         []reportNode `json:"data"`
			HasMorePages bool         `json:"has_more_pages"`
		} `json:"reports"`
	} `json:"reportData"`
}

type reportNode struct {
	Code      string  `json:"code"`
	Title     string  `json:"title"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Locator picks, for each calendar day in a range, the single guild
// report with the highest death count for the targeted boss.
type Locator struct {
	lister    ReportLister
	counter   DeathCounter
	pageLimit int
	logger    *slog.Logger
	telemetry *infrastructure.OTelProviders
}

// NewLocator creates a report locator.
func NewLocator(lister ReportLister, counter DeathCounter, pageLimit int, logger *slog.Logger, telemetry *infrastructure.OTelProviders) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	if pageLimit <= 0 {
		pageLimit = 100
	}
	return &Locator{
		lister:    lister,
		counter:   counter,
		pageLimit: pageLimit,
		logger:    infrastructure.WithComponent(logger, "report_locator"),
		telemetry: telemetry,
	}
}

// SelectReports lists the guild's reports overlapping the range and
// keeps at most one per calendar day: the candidate with the greatest
// death count for the boss. Ties break on earliest start time, then on
// report code, so the selection never depends on provider response
// order. The result is ordered by ascending date.
//
// Zero reports in range is the valid empty state and surfaces as a
// no-data error, as does a range whose reports all lack qualifying
// deaths.
func (l *Locator) SelectReports(ctx context.Context, guildID int, rng domain.DateRange, boss domain.Boss) ([]domain.SelectedReport, error) {
	start := time.Now()
	defer func() {
		if l.telemetry != nil {
			l.telemetry.RecordStage(ctx, "select_reports", time.Since(start))
		}
	}()

	nodes, err := l.listReports(ctx, guildID, rng)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, apperrors.NewNoDataError("no reports found in the requested date range").
			WithContext("guild_id", guildID)
	}

	l.logger.InfoContext(ctx, "reports listed",
		slog.Int("guild_id", guildID),
		slog.Int("reports", len(nodes)))

	best := make(map[time.Time]domain.ReportCandidate)
	for _, node := range nodes {
		startTime := time.UnixMilli(int64(node.StartTime)).UTC()
		date := domain.TruncateToDay(startTime)
		if !rng.Contains(date) {
			continue
		}

		count, err := l.counter.CountDeaths(ctx, node.Code, boss)
		if err != nil {
			return nil, err
		}
		// Reports without qualifying deaths never become candidates;
		// that keeps a quiet alt run from shadowing the real raid night.
		if count == 0 {
			continue
		}

		candidate := domain.ReportCandidate{
			Code:       node.Code,
			Title:      node.Title,
			StartTime:  startTime,
			Date:       date,
			DeathCount: count,
		}

		current, exists := best[date]
		if !exists || beats(candidate, current) {
			best[date] = candidate
		}
	}

	if len(best) == 0 {
		return nil, apperrors.NewNoDataError("no qualifying deaths found for the boss in the requested range").
			WithContext("guild_id", guildID).
			WithContext("boss", boss.Name)
	}

	selected := make([]domain.SelectedReport, 0, len(best))
	for _, candidate := range best {
		selected = append(selected, candidate.Selected())
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Date.Before(selected[j].Date)
	})

	l.logger.InfoContext(ctx, "reports selected",
		slog.Int("candidates_kept", len(selected)))

	return selected, nil
}

// listReports walks the paginated guild report listing, merging pages.
func (l *Locator) listReports(ctx context.Context, guildID int, rng domain.DateRange) ([]reportNode, error) {
	var nodes []reportNode
	for page := 1; ; page++ {
		var data reportsData
		vars := map[string]interface{}{
			"guildID":   guildID,
			"startTime": float64(rng.StartMillis()),
			"endTime":   float64(rng.EndMillis()),
			"limit":     l.pageLimit,
			"page":      page,
		}
		if err := l.lister.Query(ctx, "guild_reports", guildReportsQuery, vars, &data); err != nil {
			return nil, err
		}

		nodes = append(nodes, data.ReportData.Reports.Data...)
		if !data.ReportData.Reports.HasMorePages {
			return nodes, nil
		}
	}
}

// beats reports whether a ranks above b for the same calendar day:
// higher death count first, then earlier start time, then lower report
// code. The explicit ordering makes the selection deterministic even
// when the provider shuffles response order between calls.
func beats(a, b domain.ReportCandidate) bool {
	if a.DeathCount != b.DeathCount {
		return a.DeathCount > b.DeathCount
	}
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.Before(b.StartTime)
	}
	return a.Code < b.Code
}
