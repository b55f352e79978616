package controllers

import (
	"context"

	"github.com/amaumene/watchsync/internal/models"
	"github.com/amaumene/watchsync/internal/services/shoko"
)

// MetadataService is the Shoko API used by the sync engine
type MetadataService interface {
	Authenticate(ctx context.Context) (string, error)
	FilesByPathSuffix(ctx context.Context, key string) ([]shoko.File, error)
	SetEpisodeWatched(ctx context.Context, episodeID int) error
	WatchedEpisodes(ctx context.Context) ([]shoko.Episode, error)
}

// Matcher resolves match keys against Shoko's file index
type Matcher struct {
	metadata MetadataService
}

// NewMatcher creates a new matcher
func NewMatcher(metadata MetadataService) *Matcher {
	return &Matcher{metadata: metadata}
}

// Resolve returns the Shoko file for key when it is eligible for export.
// It fails with models.ErrUnmatched when Shoko has no linked file and with
// models.ErrAlreadySynced when Shoko already holds a watched state, whether
// true or false.
func (m *Matcher) Resolve(ctx context.Context, key string) (*shoko.File, error) {
	files, err := m.metadata.FilesByPathSuffix(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, models.ErrUnmatched
	}

	file := files[0]
	if file.Watched.Known() {
		return nil, models.ErrAlreadySynced
	}
	if len(file.EpisodeIDs()) == 0 {
		return nil, models.ErrUnmatched
	}
	return &file, nil
}
