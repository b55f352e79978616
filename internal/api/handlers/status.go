package handlers

import (
	"errors"
	"time"

	"github.com/amaumene/watchsync/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
)

const (
	defaultRunLimit = 10
	maxRunLimit     = 100
)

// RunStore is the read side of the run journal
type RunStore interface {
	GetRecentRuns(limit int) ([]*models.SyncRun, error)
	GetRunByRunID(runID string) (*models.SyncRun, error)
	GetEventsByRunID(runID string) ([]*models.SyncEvent, error)
}

// StatusHandler handles status requests
type StatusHandler struct {
	db     RunStore
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db RunStore, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// RunSummary is a journaled run as exposed over HTTP
type RunSummary struct {
	RunID         string     `json:"run_id"`
	Mode          string     `json:"mode"`
	Window        string     `json:"window,omitempty"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	Identities    []string   `json:"identities"`
	Relayed       int        `json:"relayed"`
	Imported      int        `json:"imported"`
	AlreadySynced int        `json:"already_synced"`
	Unmatched     int        `json:"unmatched"`
	Failed        int        `json:"failed"`
	Skipped       int        `json:"skipped"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalRuns int          `json:"total_runs"`
	LastRun   *RunSummary  `json:"last_run,omitempty"`
	Runs      []RunSummary `json:"runs"`
}

// EventSummary is one reconciled item of a run
type EventSummary struct {
	Identity  string    `json:"identity"`
	Library   string    `json:"library"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RunDetailResponse is a single run with its items
type RunDetailResponse struct {
	Run    RunSummary     `json:"run"`
	Events []EventSummary `json:"events"`
}

// Handle lists recent runs, newest first
func (h *StatusHandler) Handle(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultRunLimit)
	if limit <= 0 || limit > maxRunLimit {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 100")
	}

	runs, err := h.db.GetRecentRuns(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get runs")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	response := StatusResponse{
		TotalRuns: len(runs),
		Runs:      make([]RunSummary, 0, len(runs)),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, summarize(run))
	}
	if len(response.Runs) > 0 {
		response.LastRun = &response.Runs[0]
	}

	return c.JSON(response)
}

// HandleRun returns one run and its journaled items
func (h *StatusHandler) HandleRun(c *fiber.Ctx) error {
	runID := c.Params("id")

	run, err := h.db.GetRunByRunID(runID)
	if errors.Is(err, bolthold.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "run not found")
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get run")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	events, err := h.db.GetEventsByRunID(runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get run events")
		return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}

	response := RunDetailResponse{
		Run:    summarize(run),
		Events: make([]EventSummary, 0, len(events)),
	}
	for _, event := range events {
		response.Events = append(response.Events, EventSummary{
			Identity:  event.Identity,
			Library:   event.Library,
			Path:      event.Path,
			Title:     event.Title,
			Outcome:   string(event.Outcome),
			Error:     event.Error,
			CreatedAt: event.CreatedAt,
		})
	}

	return c.JSON(response)
}

func summarize(run *models.SyncRun) RunSummary {
	identities := run.Identities
	if identities == nil {
		identities = []string{}
	}
	return RunSummary{
		RunID:         run.RunID,
		Mode:          string(run.Mode),
		Window:        run.Window,
		Status:        string(run.Status),
		Error:         run.Error,
		Identities:    identities,
		Relayed:       run.Relayed,
		Imported:      run.Imported,
		AlreadySynced: run.AlreadySynced,
		Unmatched:     run.Unmatched,
		Failed:        run.Failed,
		Skipped:       run.Skipped,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
}
