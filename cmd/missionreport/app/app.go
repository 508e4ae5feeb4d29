package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/roman-kulish/waypoint-inspection/internal/report"
	"github.com/roman-kulish/waypoint-inspection/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	if config.List {
		return listMissions(ctx, store, logger)
	}

	return writeReport(ctx, store, config, logger)
}

func listMissions(ctx context.Context, store storage.Store, logger *slog.Logger) error {
	missions, err := store.Missions(ctx)
	if err != nil {
		return err
	}

	logger.Info(english.Plural(len(missions), "stored mission", ""))
	for _, m := range missions {
		attrs := []any{
			slog.String("status", m.Status),
			slog.String("started", humanize.Time(m.StartTime)),
		}
		if m.FinishTime != nil {
			attrs = append(attrs, slog.Duration("took", m.FinishTime.Sub(m.StartTime)))
		}
		logger.Info(m.ID, attrs...)
	}

	return nil
}

func writeReport(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) error {
	m, err := store.Mission(ctx, config.MissionID)
	if err != nil {
		return err
	}

	sites, err := store.Sites(ctx, m.ID)
	if err != nil {
		return err
	}

	rows := make([]report.Row, len(sites))
	for i, site := range sites {
		if site.Index != i {
			logger.Warn("report has a gap, mission ended before the site was committed",
				slog.Int("expected", i+1), slog.Int("found", site.Index+1))
		}

		rows[i] = report.Row{X: site.X, Y: site.Y, Marker: site.Marker, Note: site.Note}

		if config.Verbose {
			logger.Info(fmt.Sprintf("%s site", humanize.Ordinal(site.Index+1)),
				slog.String("color", site.Color),
				slog.String("diagnosis", site.Diagnosis),
				slog.String("symbol", site.Symbol),
				slog.Bool("revisited", site.Revisited))
		}
	}

	if err = report.WriteFile(config.OutputFile, rows); err != nil {
		return err
	}

	logger.Info("report written",
		slog.String("mission", m.ID),
		slog.String("status", m.Status),
		slog.Int("sites", len(rows)),
		slog.String("path", config.OutputFile))

	return nil
}
