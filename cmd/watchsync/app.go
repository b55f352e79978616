package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/amaumene/watchsync/internal/api"
	"github.com/amaumene/watchsync/internal/config"
	"github.com/amaumene/watchsync/internal/controllers"
	"github.com/amaumene/watchsync/internal/metrics"
	"github.com/amaumene/watchsync/internal/models"
	"github.com/amaumene/watchsync/internal/scheduler"
	"github.com/amaumene/watchsync/internal/services/plex"
	"github.com/amaumene/watchsync/internal/services/shoko"
	"github.com/amaumene/watchsync/internal/utils"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/amaumene/watchsync"

// App is the wired object graph shared by the commands
type App struct {
	Logger    *logrus.Logger
	Engine    *controllers.SyncEngine
	Gate      *controllers.ConfirmationGate
	Scheduler *scheduler.Scheduler
	Server    *api.Server
}

// SyncApp is the graph a single CLI sync needs
type SyncApp struct {
	Logger *logrus.Logger
	Engine *controllers.SyncEngine
	Gate   *controllers.ConfirmationGate
}

func provideLogger(cfg *config.Config) *logrus.Logger {
	return utils.NewLogger(cfg.LogLevel)
}

func provideDatabase(cfg *config.Config, logger *logrus.Logger) (*models.Database, func(), error) {
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.WithField("path", cfg.DatabaseFile).Debug("Run journal opened")

	return db, func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close run journal")
		}
	}, nil
}

// provideJournal opens the run journal for a one-shot sync. A running daemon
// holds the file lock, in which case the run goes unjournaled.
func provideJournal(cfg *config.Config, logger *logrus.Logger) (controllers.Journal, func(), error) {
	db, cleanup, err := provideDatabase(cfg, logger)
	if errors.Is(err, bbolt.ErrTimeout) {
		logger.WithField("path", cfg.DatabaseFile).Warn("Run journal is locked by another process, this run will not be journaled")
		return controllers.DiscardJournal{}, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return db, cleanup, nil
}

func provideTracerProvider(logger *logrus.Logger) (*sdktrace.TracerProvider, func()) {
	tp := sdktrace.NewTracerProvider()
	return tp, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to shut down tracer provider")
		}
	}
}

func provideTracer(tp *sdktrace.TracerProvider) trace.Tracer {
	return tp.Tracer(tracerName)
}

// provideReporter writes the sync tree to stdout, colored only on a terminal
func provideReporter() *controllers.Reporter {
	return controllers.NewReporter(os.Stdout, utils.IsTerminal(os.Stdout))
}

func provideGate(reporter *controllers.Reporter, logger *logrus.Logger) *controllers.ConfirmationGate {
	return controllers.NewConfirmationGate(os.Stdin, reporter, logger)
}

func provideConnector(cfg *config.Config, client *plex.Client) *controllers.PlexConnector {
	return controllers.NewPlexConnector(client, cfg.PlexServerName)
}

func provideSyncEngine(
	cfg *config.Config,
	resolver *controllers.IdentityResolver,
	connector *controllers.PlexConnector,
	metadata *shoko.Client,
	gate *controllers.ConfirmationGate,
	journal controllers.Journal,
	m *metrics.Metrics,
	tracer trace.Tracer,
	reporter *controllers.Reporter,
	logger *logrus.Logger,
) *controllers.SyncEngine {
	return controllers.NewSyncEngine(resolver, connector, metadata, gate, journal, m, tracer, reporter,
		cfg.PlexServerName, cfg.PlexLibraryNames, logger)
}

func provideScheduler(cfg *config.Config, engine *controllers.SyncEngine, db *models.Database, logger *logrus.Logger) (*scheduler.Scheduler, error) {
	window, err := utils.ParseWindow(cfg.SyncWindow)
	if err != nil {
		return nil, err
	}
	return scheduler.NewScheduler(engine, db, cfg.SyncSchedule, window, cfg.JournalKeep, logger), nil
}
