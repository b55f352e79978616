package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/watchsync/internal/metrics"
	"github.com/amaumene/watchsync/internal/models"
	"github.com/amaumene/watchsync/internal/services/plex"
	"github.com/amaumene/watchsync/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Identities yields the Plex identities a run processes
type Identities interface {
	Resolve(ctx context.Context) ([]plex.Identity, error)
}

// LibraryServer is a Plex Media Server reached as one identity
type LibraryServer interface {
	Section(ctx context.Context, name string) (*plex.Section, error)
	SearchEpisodes(ctx context.Context, sectionKey string, filter plex.EpisodeFilter) ([]plex.Episode, error)
	MarkWatched(ctx context.Context, ratingKey string) error
}

// ServerConnector opens the configured Plex server for an identity
type ServerConnector interface {
	Connect(ctx context.Context, identity plex.Identity) (LibraryServer, error)
}

// Journal records runs and their per-item outcomes. It is never read while
// syncing.
type Journal interface {
	CreateRun(run *models.SyncRun) error
	UpdateRun(run *models.SyncRun) error
	CreateEvent(event *models.SyncEvent) error
}

// DiscardJournal keeps nothing. It stands in when the journal file is held
// by another process.
type DiscardJournal struct{}

// CreateRun assigns a run ID so log lines stay correlated
func (DiscardJournal) CreateRun(run *models.SyncRun) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	return nil
}

func (DiscardJournal) UpdateRun(*models.SyncRun) error { return nil }

func (DiscardJournal) CreateEvent(*models.SyncEvent) error { return nil }

// PlexConnector resolves the named server through the plex.tv resource list
type PlexConnector struct {
	client     *plex.Client
	serverName string
}

// NewPlexConnector creates a connector for serverName
func NewPlexConnector(client *plex.Client, serverName string) *PlexConnector {
	return &PlexConnector{client: client, serverName: serverName}
}

// Connect implements ServerConnector
func (p *PlexConnector) Connect(ctx context.Context, identity plex.Identity) (LibraryServer, error) {
	server, err := p.client.ResolveServer(ctx, identity.Token, p.serverName)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// RunOptions selects what a single run does
type RunOptions struct {
	Mode   models.Mode
	Window utils.Window // export only
}

// SyncEngine reconciles watched states between Plex and Shoko
type SyncEngine struct {
	identities Identities
	connector  ServerConnector
	metadata   MetadataService
	matcher    *Matcher
	gate       Confirmer
	journal    Journal
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	reporter   *Reporter
	serverName string
	libraries  []string
	logger     *logrus.Logger
	now        func() time.Time
}

// NewSyncEngine creates a new sync engine
func NewSyncEngine(
	identities Identities,
	connector ServerConnector,
	metadata MetadataService,
	gate Confirmer,
	journal Journal,
	m *metrics.Metrics,
	tracer trace.Tracer,
	reporter *Reporter,
	serverName string,
	libraries []string,
	logger *logrus.Logger,
) *SyncEngine {
	return &SyncEngine{
		identities: identities,
		connector:  connector,
		metadata:   metadata,
		matcher:    NewMatcher(metadata),
		gate:       gate,
		journal:    journal,
		metrics:    m,
		tracer:     tracer,
		reporter:   reporter,
		serverName: serverName,
		libraries:  libraries,
		logger:     logger,
		now:        time.Now,
	}
}

// scope is the identity and library an item belongs to
type scope struct {
	identity plex.Identity
	library  string
}

// Run performs one sync pass in the selected mode. The returned run is
// non-nil even when err is, and carries the per-outcome counters. Only
// failures that make the whole pass meaningless are returned; per-library
// and per-item problems are reported and counted.
func (e *SyncEngine) Run(ctx context.Context, opts RunOptions) (*models.SyncRun, error) {
	run := &models.SyncRun{Mode: opts.Mode, StartedAt: e.now()}
	if opts.Mode == models.ModeExport {
		run.Window = opts.Window.String()
	}
	if err := e.journal.CreateRun(run); err != nil {
		e.logger.WithError(err).Warn("Failed to journal sync run")
	}

	ctx, span := e.tracer.Start(ctx, "sync.run", trace.WithAttributes(
		attribute.String("mode", string(opts.Mode)),
		attribute.String("run_id", run.RunID),
	))
	defer span.End()

	log := e.logger.WithFields(logrus.Fields{"run_id": run.RunID, "mode": opts.Mode})
	log.Info("Starting watched sync")

	err := e.run(ctx, run, opts)
	switch {
	case errors.Is(err, context.Canceled):
		run.Status = models.RunStatusAborted
		run.Error = err.Error()
		log.Warn("Watched sync interrupted")
	case err != nil:
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Error("Watched sync failed")
	case run.Status == models.RunStatusAborted:
		log.Warn("Watched sync aborted")
	default:
		run.Status = models.RunStatusCompleted
		log.WithFields(logrus.Fields{
			"relayed":        run.Relayed,
			"imported":       run.Imported,
			"already_synced": run.AlreadySynced,
			"unmatched":      run.Unmatched,
			"failed":         run.Failed,
		}).Info("Watched sync complete")
	}

	finished := e.now()
	run.FinishedAt = &finished
	if jerr := e.journal.UpdateRun(run); jerr != nil {
		e.logger.WithError(jerr).Warn("Failed to journal sync run result")
	}
	e.metrics.ObserveRun(run)
	return run, err
}

func (e *SyncEngine) run(ctx context.Context, run *models.SyncRun, opts RunOptions) error {
	identities, err := e.identities.Resolve(ctx)
	if err != nil {
		return err
	}
	for _, identity := range identities {
		run.Identities = append(run.Identities, identity.Name)
	}

	if _, err := e.metadata.Authenticate(ctx); err != nil {
		return fmt.Errorf("failed to authenticate with shoko: %w", err)
	}

	e.reporter.Header()

	// Shoko's watched list does not depend on the identity, so it is
	// downloaded once per import run.
	var watched map[string]struct{}
	if opts.Mode == models.ModeImport {
		e.reporter.Generating()
		watched, err = e.watchedFilenames(ctx)
		if err != nil {
			return fmt.Errorf("failed to get shoko watched episodes: %w", err)
		}
	}

	for _, identity := range identities {
		if err := ctx.Err(); err != nil {
			return err
		}

		if opts.Mode == models.ModeImport {
			switch e.gate.Confirm(ctx, identity) {
			case DecisionSkip:
				run.Skipped++
				continue
			case DecisionAbort:
				if err := ctx.Err(); err != nil {
					return err
				}
				run.Status = models.RunStatusAborted
				return nil
			}
		}

		if err := e.syncIdentity(ctx, run, opts, identity, watched); err != nil {
			return err
		}
	}

	e.reporter.Complete()
	return nil
}

func (e *SyncEngine) syncIdentity(ctx context.Context, run *models.SyncRun, opts RunOptions, identity plex.Identity, watched map[string]struct{}) error {
	ctx, span := e.tracer.Start(ctx, "sync.identity", trace.WithAttributes(
		attribute.String("identity", identity.Name),
	))
	defer span.End()

	server, err := e.connector.Connect(ctx, identity)
	if err != nil {
		e.reporter.ServerFailed(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to connect to plex server %q as %s: %w", e.serverName, identity.Name, err)
	}

	for _, library := range e.libraries {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.reporter.Querying(identity.Name, e.serverName, library)
		sc := scope{identity: identity, library: library}

		var lerr error
		if opts.Mode == models.ModeImport {
			lerr = e.importLibrary(ctx, run, server, sc, watched)
		} else {
			lerr = e.exportLibrary(ctx, run, server, sc, opts.Window)
		}
		if lerr != nil {
			e.logger.WithError(lerr).WithFields(logrus.Fields{
				"identity": identity.Name,
				"library":  library,
			}).Error("Failed to sync library")
			e.reporter.LibraryFailed(lerr)
		}
		e.reporter.Finished()
	}
	return nil
}

// exportLibrary relays recently watched Plex episodes to Shoko
func (e *SyncEngine) exportLibrary(ctx context.Context, run *models.SyncRun, server LibraryServer, sc scope, window utils.Window) error {
	ctx, span := e.tracer.Start(ctx, "sync.library", trace.WithAttributes(
		attribute.String("library", sc.library),
	))
	defer span.End()

	section, err := server.Section(ctx, sc.library)
	if err != nil {
		return err
	}

	cutoff := window.Cutoff(e.now())
	episodes, err := server.SearchEpisodes(ctx, section.Key, plex.EpisodeFilter{ViewedAfter: cutoff})
	if err != nil {
		return err
	}

	for _, episode := range episodes {
		// The server side filter is exclusive; the window is not.
		if !episode.Watched() || !utils.Includes(cutoff, episode.LastViewedAt) {
			continue
		}
		for _, file := range episode.Files {
			outcome, err := e.relay(ctx, episode, file)
			e.record(run, sc, file, episode.Title, outcome, err)
		}
	}
	return nil
}

func (e *SyncEngine) relay(ctx context.Context, episode plex.Episode, file string) (models.Outcome, error) {
	key := utils.MatchKey(file)

	match, err := e.matcher.Resolve(ctx, key)
	switch {
	case errors.Is(err, models.ErrUnmatched):
		e.reporter.Unmatched(key)
		return models.OutcomeUnmatched, nil
	case errors.Is(err, models.ErrAlreadySynced):
		return models.OutcomeAlreadySynced, nil
	case err != nil:
		err = &models.ItemSyncError{Path: file, Title: episode.Title, Err: err}
		e.reporter.ItemFailed(err)
		return models.OutcomeFailed, err
	}

	e.reporter.Relaying(key, episode.Title)

	var errs []error
	for _, id := range match.EpisodeIDs() {
		if err := e.metadata.SetEpisodeWatched(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("episode %d: %w", id, err))
		}
	}
	if len(errs) > 0 {
		err := &models.ItemSyncError{Path: file, Title: episode.Title, Err: errors.Join(errs...)}
		e.reporter.ItemFailed(err)
		return models.OutcomeFailed, err
	}
	return models.OutcomeRelayed, nil
}

// importLibrary marks unwatched Plex episodes as watched when Shoko has
// their file as watched
func (e *SyncEngine) importLibrary(ctx context.Context, run *models.SyncRun, server LibraryServer, sc scope, watched map[string]struct{}) error {
	ctx, span := e.tracer.Start(ctx, "sync.library", trace.WithAttributes(
		attribute.String("library", sc.library),
	))
	defer span.End()

	section, err := server.Section(ctx, sc.library)
	if err != nil {
		return err
	}

	episodes, err := server.SearchEpisodes(ctx, section.Key, plex.EpisodeFilter{Unwatched: true})
	if err != nil {
		return err
	}

	for _, episode := range episodes {
		if episode.Watched() {
			continue
		}
		for _, file := range episode.Files {
			name := utils.BaseName(file)
			if _, ok := watched[name]; !ok {
				continue
			}

			if err := server.MarkWatched(ctx, episode.RatingKey); err != nil {
				err = &models.ItemSyncError{Path: file, Title: episode.Title, Err: err}
				e.reporter.ItemFailed(err)
				e.record(run, sc, file, episode.Title, models.OutcomeFailed, err)
				continue
			}

			e.reporter.Importing(name)
			e.record(run, sc, file, episode.Title, models.OutcomeImported, nil)
			// One scrobble marks the whole episode.
			break
		}
	}
	return nil
}

// watchedFilenames returns the base names of the first file of every
// episode Shoko has as watched
func (e *SyncEngine) watchedFilenames(ctx context.Context) (map[string]struct{}, error) {
	episodes, err := e.metadata.WatchedEpisodes(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(episodes))
	for _, episode := range episodes {
		path := episode.PrimaryPath()
		if path == "" {
			continue
		}
		names[utils.BaseName(path)] = struct{}{}
	}

	e.logger.WithField("count", len(names)).Debug("Loaded Shoko watched file names")
	return names, nil
}

func (e *SyncEngine) record(run *models.SyncRun, sc scope, path, title string, outcome models.Outcome, itemErr error) {
	run.Record(outcome)
	e.metrics.ObserveItem(run.Mode, outcome)

	fields := logrus.Fields{
		"identity": sc.identity.Name,
		"library":  sc.library,
		"path":     path,
		"outcome":  outcome,
	}
	if itemErr != nil {
		e.logger.WithError(itemErr).WithFields(fields).Warn("Failed to sync item")
	} else {
		e.logger.WithFields(fields).Debug("Item reconciled")
	}

	event := &models.SyncEvent{
		RunID:     run.RunID,
		Identity:  sc.identity.Name,
		Library:   sc.library,
		Path:      path,
		Title:     title,
		Outcome:   outcome,
		CreatedAt: e.now(),
	}
	if itemErr != nil {
		event.Error = itemErr.Error()
	}
	if err := e.journal.CreateEvent(event); err != nil {
		e.logger.WithError(err).Warn("Failed to journal sync event")
	}
}
