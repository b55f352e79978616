package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/amaumene/watchsync/internal/controllers"
	"github.com/amaumene/watchsync/internal/models"
	"github.com/amaumene/watchsync/internal/utils"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner performs a single sync pass
type Runner interface {
	Run(ctx context.Context, opts controllers.RunOptions) (*models.SyncRun, error)
}

// Pruner trims the run journal
type Pruner interface {
	PruneRuns(keep int) (int, error)
}

// Scheduler runs export passes on a cron schedule. Import is interactive
// and never scheduled.
type Scheduler struct {
	cron        *cron.Cron
	runner      Runner
	journal     Pruner
	schedule    string
	window      utils.Window
	journalKeep int
	logger      *logrus.Logger

	mu      sync.Mutex
	running bool
	initial sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, journal Pruner, schedule string, window utils.Window, journalKeep int, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		runner:      runner,
		journal:     journal,
		schedule:    schedule,
		window:      window,
		journalKeep: journalKeep,
		logger:      logger,
	}
}

// Start starts the scheduler and kicks off an initial export
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"schedule": s.schedule,
		"window":   s.window.String(),
	}).Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runExport(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add export job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.runExport(ctx)
	}()

	return nil
}

// Stop stops the scheduler and waits for running exports to finish,
// including the one kicked off by Start
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.initial.Wait()
}

// runExport executes one export pass unless one is already in progress
func (s *Scheduler) runExport(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Previous export still running, skipping this tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("Running scheduled export")
	run, err := s.runner.Run(ctx, controllers.RunOptions{Mode: models.ModeExport, Window: s.window})
	if err != nil {
		s.logger.WithError(err).Error("Export job failed")
	} else {
		s.logger.WithField("run_id", run.RunID).Info("Export job completed successfully")
	}

	s.pruneJournal()
}

func (s *Scheduler) pruneJournal() {
	if s.journalKeep <= 0 {
		return
	}

	removed, err := s.journal.PruneRuns(s.journalKeep)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to prune run journal")
		return
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Debug("Pruned run journal")
	}
}
