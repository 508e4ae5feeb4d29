package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/waypoint-inspection/internal/led"
	"github.com/roman-kulish/waypoint-inspection/internal/mission"
	"github.com/roman-kulish/waypoint-inspection/internal/navigation"
	"github.com/roman-kulish/waypoint-inspection/internal/report"
	"github.com/roman-kulish/waypoint-inspection/internal/sim"
	"github.com/roman-kulish/waypoint-inspection/internal/storage"
	"github.com/roman-kulish/waypoint-inspection/internal/vision"
)

const (
	storageDir  = "data"
	storageFile = "missions.sqlite"
)

// Run flies one mission. The report is written and the mission record is
// finished even when the mission aborts or is interrupted.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createStorage(config.Settings.DataDirectory)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	missionID := uuid.New().String()
	if err = store.CreateMission(ctx, missionID, config.Mission); err != nil {
		return fmt.Errorf("failed to create mission record: %w", err)
	}
	logger = logger.With(slog.String("mission", missionID))

	services, closeServices, err := createServices(config, logger)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}
	defer closeServices()

	recorder := &siteRecorder{store: store, missionID: missionID, labels: config.ReportLabels}
	seq, err := mission.NewSequencer(config.Mission, services,
		mission.WithLogger(logger),
		mission.WithRecorder(recorder))
	if err != nil {
		return fmt.Errorf("failed to create sequencer: %w", err)
	}

	logger.Info("starting mission", slog.Int("waypoints", len(config.Mission.Waypoints)))
	started := time.Now()

	result, runErr := seq.Run(ctx)

	// the mission may have been interrupted, bookkeeping still has to happen
	ctx = context.WithoutCancel(ctx)

	var reportErr error
	if result != nil {
		rows := report.FromOutcomes(result.Ledger.Outcomes(), config.ReportLabels)
		if reportErr = report.WriteFile(config.Settings.ReportPath, rows); reportErr == nil {
			logger.Info("report written",
				slog.String("path", config.Settings.ReportPath),
				slog.Int("sites", len(rows)),
				slog.String("state", result.State.String()))
		}
	}

	status := missionStatus(runErr)
	finishErr := store.FinishMission(ctx, missionID, status)

	logger.Info("mission finished",
		slog.String("status", status),
		slog.Duration("took", time.Since(started).Round(time.Second)))

	return errors.Join(runErr, reportErr, finishErr)
}

func missionStatus(err error) string {
	switch {
	case err == nil:
		return storage.StatusCompleted
	case errors.Is(err, mission.ErrAborted):
		return storage.StatusAborted
	default:
		return storage.StatusInterrupted
	}
}

// createServices wires the simulated flight stack with the configured camera
// and LED strip. The returned function releases the hardware.
func createServices(config *Config, logger *slog.Logger) (mission.Services, func(), error) {
	home := config.Mission.Home
	vehicle := sim.NewVehicle(home.X, home.Y,
		sim.WithMarkers(config.Sim.Markers...),
		sim.WithStep(config.Sim.Step),
		sim.WithLogger(logger))

	nc := config.Navigation
	nav := navigation.NewClient(vehicle.Services(),
		navigation.WithLogger(logger),
		navigation.WithPollInterval(nc.PollInterval),
		navigation.WithArrivalTimeout(nc.ArrivalTimeout),
		navigation.WithSettle(nc.TakeoffSettle, nc.LandSettle),
		navigation.WithSpeed(nc.Speed),
		navigation.WithTolerance(nc.Tolerance))

	var camera vision.Camera = vehicle
	var decoder vision.SymbolDecoder = vehicle
	if config.Camera.Directory != "" {
		camera = vision.NewDirCamera(config.Camera.Directory)
		decoder = vision.NewQRDecoder()
		logger.Info("reading frames from directory", slog.String("directory", config.Camera.Directory))
	}

	vc := config.Vision
	colorOptions := []func(cc *vision.ColorClassifier){
		vision.WithColorBands(vc.Bands),
		vision.WithColorSampling(vc.ColorRounds, vc.ColorInterval),
		vision.WithColorLogger(logger),
	}
	if vc.DebugDirectory != "" {
		annotator, err := vision.NewAnnotator()
		if err != nil {
			return mission.Services{}, nil, fmt.Errorf("creating annotator: %w", err)
		}
		sink, err := vision.NewPNGDirSink(vc.DebugDirectory)
		if err != nil {
			return mission.Services{}, nil, err
		}
		colorOptions = append(colorOptions, vision.WithColorDebug(annotator, sink))
	}

	closer := func() {}

	var effect led.Effect = led.NewLogEffect(logger)
	if config.LED.SerialPort != "" {
		serialEffect := led.NewSerialEffect(config.LED.SerialPort, config.LED.BaudRate)
		effect = serialEffect
		closer = func() {
			if err := serialEffect.Close(); err != nil {
				logger.Warn(fmt.Sprintf("closing led port: %s", err.Error()))
			}
		}
	}

	return mission.Services{
		Navigation: nav,
		Color:      vision.NewColorClassifier(camera, colorOptions...),
		Symbol: vision.NewSymbolClassifier(camera, decoder,
			vision.WithSymbolSampling(vc.SymbolRounds, vc.SymbolInterval),
			vision.WithSymbolLogger(logger)),
		Effect: effect,
	}, closer, nil
}

func createStorage(dataDirectory string) (*storage.SqliteStore, error) {
	if dataDirectory == "" {
		dataDirectory = storageDir
	}

	dbPath := dataDirectory
	if !filepath.IsAbs(dbPath) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		dbPath = filepath.Join(wd, dbPath)
	}

	stat, err := os.Stat(dbPath)
	switch {
	case os.IsNotExist(err):
		if err = os.MkdirAll(dbPath, 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory '%s': %w", dbPath, err)
		}
	case err != nil:
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	case !stat.IsDir():
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	return storage.NewSqliteStore(filepath.Join(dbPath, storageFile)), nil
}

// siteRecorder persists committed site outcomes of one mission
type siteRecorder struct {
	store     storage.Store
	missionID string
	labels    report.Labels
}

func (r *siteRecorder) RecordSite(ctx context.Context, o mission.SiteOutcome) error {
	return r.store.SaveSite(ctx, &storage.Site{
		MissionID:  r.missionID,
		Index:      o.Index,
		X:          o.Waypoint.X,
		Y:          o.Waypoint.Y,
		Color:      o.Color.String(),
		Ambiguous:  o.Ambiguous,
		Marker:     o.Marker(),
		Diagnosis:  o.Diagnosis.String(),
		Note:       r.labels.For(o.Diagnosis),
		Symbol:     o.Symbol,
		SymbolSeen: o.SymbolSeen,
		Revisited:  o.Revisited,
	})
}
