package shoko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amaumene/watchsync/internal/models"
	"github.com/amaumene/watchsync/internal/utils"
	"github.com/sirupsen/logrus"
)

// IDs is Shoko's identifier object; only the Shoko ID is used
type IDs struct {
	ID int `json:"ID"`
}

// Location is one place a file is stored, relative to its import folder
type Location struct {
	RelativePath   string `json:"RelativePath"`
	ImportFolderID int    `json:"ImportFolderID"`
}

// SeriesGrouping lists the episodes a file belongs to within one series
type SeriesGrouping struct {
	SeriesID   IDs   `json:"SeriesID"`
	EpisodeIDs []IDs `json:"EpisodeIDs"`
}

// File is a file record from Shoko's file index
type File struct {
	ID        int              `json:"ID"`
	Locations []Location       `json:"Locations"`
	SeriesIDs []SeriesGrouping `json:"SeriesIDs"`
	Watched   models.TriState  `json:"Watched"`
}

// EpisodeIDs returns every episode the file is linked to across all series
func (f File) EpisodeIDs() []int {
	var ids []int
	for _, series := range f.SeriesIDs {
		for _, ep := range series.EpisodeIDs {
			ids = append(ids, ep.ID)
		}
	}
	return ids
}

// PrimaryPath is the relative path of the file's first location
func (f File) PrimaryPath() string {
	if len(f.Locations) == 0 {
		return ""
	}
	return f.Locations[0].RelativePath
}

// Episode is an episode record with its files
type Episode struct {
	IDs   IDs    `json:"IDs"`
	Name  string `json:"Name"`
	Files []File `json:"Files"`
}

// PrimaryPath is the relative path of the episode's first file location
func (e Episode) PrimaryPath() string {
	if len(e.Files) == 0 {
		return ""
	}
	return e.Files[0].PrimaryPath()
}

type episodeList struct {
	Total int       `json:"Total"`
	List  []Episode `json:"List"`
}

// FilesByPathSuffix returns the files whose stored path ends with key.
// Results Shoko reports at other paths are dropped.
func (c *Client) FilesByPathSuffix(ctx context.Context, key string) ([]File, error) {
	params := url.Values{}
	params.Set("path", key)
	params.Set("limit", "0")

	var files []File
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/File/PathEndsWith?"+params.Encode(), nil, &files); err != nil {
		return nil, fmt.Errorf("failed to search files by path: %w", err)
	}

	matched := files[:0]
	for _, f := range files {
		if len(f.Locations) == 0 || hasLocationWithSuffix(f, key) {
			matched = append(matched, f)
			continue
		}
		c.logger.WithFields(logrus.Fields{
			"file_id": f.ID,
			"key":     key,
			"path":    f.PrimaryPath(),
		}).Debug("Dropping Shoko file that does not end with key")
	}
	return matched, nil
}

func hasLocationWithSuffix(f File, key string) bool {
	for _, loc := range f.Locations {
		if utils.HasMatchKeySuffix(utils.MatchSeparator+loc.RelativePath, key) {
			return true
		}
	}
	return false
}

// SetEpisodeWatched marks an episode watched. Shoko relays this to AniDB and
// any configured trackers.
func (c *Client) SetEpisodeWatched(ctx context.Context, episodeID int) error {
	path := fmt.Sprintf("/api/v3/Episode/%d/Watched/true", episodeID)
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("failed to mark episode %d watched: %w", episodeID, err)
	}
	return nil
}

// WatchedEpisodes returns every episode Shoko has marked watched, with files
func (c *Client) WatchedEpisodes(ctx context.Context) ([]Episode, error) {
	params := url.Values{}
	params.Set("pageSize", "0")
	params.Set("page", "1")
	params.Set("includeWatched", "only")
	params.Set("includeFiles", "true")

	var resp episodeList
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/Episode?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get watched episodes: %w", err)
	}

	c.logger.WithField("count", len(resp.List)).Debug("Retrieved Shoko watched episodes")
	return resp.List, nil
}
