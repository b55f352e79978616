package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// episodeType is Plex's metadata type number for episodes
const episodeType = "4"

// Episode is a Plex episode together with the files backing it
type Episode struct {
	RatingKey    string
	Title        string
	ShowTitle    string
	Files        []string
	ViewCount    int
	LastViewedAt time.Time
}

// Watched reports whether Plex considers the episode played
func (e Episode) Watched() bool {
	return e.ViewCount > 0
}

// EpisodeFilter selects episodes by watched state and, for watched episodes,
// by how recently they were viewed
type EpisodeFilter struct {
	Unwatched   bool
	ViewedAfter time.Time
}

type episodesResponse struct {
	Videos []video `xml:"Video"`
}

type video struct {
	RatingKey        string       `xml:"ratingKey,attr"`
	Title            string       `xml:"title,attr"`
	GrandparentTitle string       `xml:"grandparentTitle,attr"`
	ViewCount        int          `xml:"viewCount,attr"`
	LastViewedAt     int64        `xml:"lastViewedAt,attr"`
	Media            []videoMedia `xml:"Media"`
}

type videoMedia struct {
	Parts []videoPart `xml:"Part"`
}

type videoPart struct {
	File string `xml:"file,attr"`
}

func (v video) episode() Episode {
	ep := Episode{
		RatingKey: v.RatingKey,
		Title:     v.Title,
		ShowTitle: v.GrandparentTitle,
		ViewCount: v.ViewCount,
	}
	if v.LastViewedAt > 0 {
		ep.LastViewedAt = time.Unix(v.LastViewedAt, 0)
	}
	for _, media := range v.Media {
		for _, part := range media.Parts {
			if part.File != "" {
				ep.Files = append(ep.Files, part.File)
			}
		}
	}
	return ep
}

// SearchEpisodes lists the episodes of a section matching filter
func (s *Server) SearchEpisodes(ctx context.Context, sectionKey string, filter EpisodeFilter) ([]Episode, error) {
	params := url.Values{}
	params.Set("type", episodeType)
	if filter.Unwatched {
		params.Set("unwatched", "1")
	} else {
		params.Set("viewCount>>", "0")
		// Plex's ">>" is strict, step back one second to keep the bound inclusive
		if after := filter.ViewedAfter.Unix(); after > 0 {
			params.Set("lastViewedAt>>", strconv.FormatInt(after-1, 10))
		}
	}

	var resp episodesResponse
	err := s.client.doRequest(ctx, request{
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/library/sections/%s/all?%s", s.URL, url.PathEscape(sectionKey), params.Encode()),
		token:  s.Token,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search plex episodes: %w", err)
	}

	episodes := make([]Episode, 0, len(resp.Videos))
	for _, v := range resp.Videos {
		episodes = append(episodes, v.episode())
	}
	return episodes, nil
}

// MarkWatched scrobbles an episode, marking it played for the server's identity
func (s *Server) MarkWatched(ctx context.Context, ratingKey string) error {
	params := url.Values{}
	params.Set("key", ratingKey)
	params.Set("identifier", "com.plexapp.plugins.library")

	err := s.client.doRequest(ctx, request{
		method: http.MethodGet,
		url:    s.URL + "/:/scrobble?" + params.Encode(),
		token:  s.Token,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to mark %s watched: %w", ratingKey, err)
	}
	return nil
}
