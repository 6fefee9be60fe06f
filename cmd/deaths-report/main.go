package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"northstar/internal/app"
	"northstar/internal/config"
	"northstar/internal/exporter"
	"northstar/internal/infrastructure"
	"northstar/internal/pipeline"
)

func main() {
	guild := flag.String("guild", "", "guild ID or guild URL (e.g. https://www.warcraftlogs.com/guild/id/260153)")
	from := flag.String("from", "", "start date YYYY-MM-DD (default: 7 days ago)")
	to := flag.String("to", "", "end date YYYY-MM-DD (default: today)")
	bossName := flag.String("boss", "", "boss name from the registry")
	bossID := flag.Int("boss-id", 0, "encounter ID (overrides registry lookup)")
	abilityID := flag.Int("ability", 0, "ability ID to scope deaths to (0 = all deaths on the boss)")
	difficulty := flag.Int("difficulty", config.DefaultDifficulty, "encounter difficulty (5 = Mythic, 0 = any)")
	wipesOnly := flag.Bool("wipes-only", true, "count deaths on non-kill pulls only")
	out := flag.String("out", "", "output CSV filename (default: deaths_summary_<from>_<to>.csv)")
	xlsx := flag.Bool("xlsx", false, "also write an XLSX workbook next to the CSV")
	tracing := flag.Bool("trace", false, "emit debug trace spans to stderr")
	flag.Parse()

	a, err := app.Bootstrap("deaths-report.log", *tracing)
	if err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown(context.Background())

	ctx := infrastructure.ContextWithTraceID(context.Background())

	req, err := a.BuildRequest(app.RequestFlags{
		Guild:      *guild,
		From:       *from,
		To:         *to,
		BossName:   *bossName,
		BossID:     *bossID,
		AbilityID:  *abilityID,
		Difficulty: *difficulty,
		WipesOnly:  *wipesOnly,
		Metric:     pipeline.MetricDeaths,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	runner := pipeline.NewRunner(a.Client, a.Config.Fetch, a.Logger, a.Telemetry)
	result, err := runner.Run(ctx, req)
	if err != nil {
		app.ExitOnPipelineError(a.Logger, err)
	}

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("deaths_summary_%s_%s.csv",
			req.Range.Start.Format(config.DateFormat),
			req.Range.End.Format(config.DateFormat))
	}

	if err := exporter.NewCSVWriter(a.Paths).ExportTableCSV(result.Table, filename); err != nil {
		a.Logger.Error("Failed to write CSV", "error", err)
		os.Exit(1)
	}

	if *xlsx {
		xlsxName := strings.TrimSuffix(filename, ".csv") + ".xlsx"
		if err := exporter.NewXLSXWriter(a.Paths).ExportTableXLSX(result.Table, xlsxName); err != nil {
			a.Logger.Error("Failed to write XLSX", "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Processed %d reports, %d distinct players.\n",
		result.Summary.ReportsProcessed, result.Summary.DistinctPlayers)
	fmt.Printf("CSV written to: %s\n", a.Paths.GetReportPath(filename))
	for _, report := range result.Selected {
		fmt.Printf("  %s  %s%s\n", report.DateString(), config.ReportBaseURL, report.Code)
	}
}
