package controllers

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/watchsync/internal/metrics"
	"github.com/amaumene/watchsync/internal/models"
	"github.com/amaumene/watchsync/internal/services/plex"
	"github.com/amaumene/watchsync/internal/services/shoko"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeIdentities struct {
	identities []plex.Identity
	err        error
}

func (f *fakeIdentities) Resolve(ctx context.Context) ([]plex.Identity, error) {
	return f.identities, f.err
}

// fakeServer serves episodes per section key. Watched searches return every
// watched episode so the engine's own window check is exercised.
type fakeServer struct {
	mu       sync.Mutex
	sections map[string]string // library name -> section key
	episodes map[string][]plex.Episode
	searches map[string]error
	markErr  map[string]error
	marked   []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		sections: map[string]string{},
		episodes: map[string][]plex.Episode{},
		searches: map[string]error{},
		markErr:  map[string]error{},
	}
}

func (s *fakeServer) addLibrary(name, key string, episodes ...plex.Episode) {
	s.sections[name] = key
	s.episodes[key] = episodes
}

func (s *fakeServer) Section(ctx context.Context, name string) (*plex.Section, error) {
	key, ok := s.sections[name]
	if !ok {
		return nil, &models.ConnectError{Service: models.ServicePlex, Target: name, Err: errNotFound}
	}
	return &plex.Section{Key: key, Title: name, Type: "show"}, nil
}

func (s *fakeServer) SearchEpisodes(ctx context.Context, sectionKey string, filter plex.EpisodeFilter) ([]plex.Episode, error) {
	if err := s.searches[sectionKey]; err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []plex.Episode
	for _, ep := range s.episodes[sectionKey] {
		if ep.Watched() != filter.Unwatched {
			out = append(out, ep)
		}
	}
	return out, nil
}

func (s *fakeServer) MarkWatched(ctx context.Context, ratingKey string) error {
	if err := s.markErr[ratingKey]; err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, ratingKey)
	for key, episodes := range s.episodes {
		for i := range episodes {
			if episodes[i].RatingKey == ratingKey {
				s.episodes[key][i].ViewCount++
				s.episodes[key][i].LastViewedAt = testNow
			}
		}
	}
	return nil
}

type fakeConnector struct {
	servers map[string]*fakeServer // identity name -> server
	err     error
}

func (c *fakeConnector) Connect(ctx context.Context, identity plex.Identity) (LibraryServer, error) {
	if c.err != nil {
		return nil, c.err
	}
	server, ok := c.servers[identity.Name]
	if !ok {
		return nil, &models.ConnectError{Service: models.ServicePlex, Target: identity.Name, Err: errNotFound}
	}
	return server, nil
}

// fakeMetadata is an in-memory Shoko. Setting an episode watched flips the
// tri-state of every file linked to it.
type fakeMetadata struct {
	mu        sync.Mutex
	files     []shoko.File
	watched   []shoko.Episode
	authErr   error
	lookupErr map[string]error
	setErr    map[int]error
	setCalls  []int
	lookups   int
}

func newFakeMetadata(files ...shoko.File) *fakeMetadata {
	return &fakeMetadata{files: files, lookupErr: map[string]error{}, setErr: map[int]error{}}
}

func (m *fakeMetadata) Authenticate(ctx context.Context) (string, error) {
	if m.authErr != nil {
		return "", m.authErr
	}
	return "apikey", nil
}

func (m *fakeMetadata) FilesByPathSuffix(ctx context.Context, key string) ([]shoko.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if err := m.lookupErr[key]; err != nil {
		return nil, err
	}

	var out []shoko.File
	for _, f := range m.files {
		path := `\` + strings.ReplaceAll(f.PrimaryPath(), "/", `\`)
		if strings.HasSuffix(path, key) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *fakeMetadata) SetEpisodeWatched(ctx context.Context, episodeID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setErr[episodeID]; err != nil {
		return err
	}
	m.setCalls = append(m.setCalls, episodeID)
	for i, f := range m.files {
		for _, id := range f.EpisodeIDs() {
			if id == episodeID {
				m.files[i].Watched = models.TriTrue
			}
		}
	}
	return nil
}

func (m *fakeMetadata) WatchedEpisodes(ctx context.Context) ([]shoko.Episode, error) {
	return m.watched, nil
}

type staticGate struct {
	decisions []Decision
	asked     []string
}

func (g *staticGate) Confirm(ctx context.Context, identity plex.Identity) Decision {
	g.asked = append(g.asked, identity.Name)
	if len(g.asked) > len(g.decisions) {
		return DecisionAbort
	}
	return g.decisions[len(g.asked)-1]
}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var errNotFound = notFoundError{}

func shokoFile(id int, path string, episodeIDs ...int) shoko.File {
	grouping := shoko.SeriesGrouping{SeriesID: shoko.IDs{ID: id * 100}}
	for _, ep := range episodeIDs {
		grouping.EpisodeIDs = append(grouping.EpisodeIDs, shoko.IDs{ID: ep})
	}
	return shoko.File{
		ID:        id,
		Locations: []shoko.Location{{RelativePath: path, ImportFolderID: 1}},
		SeriesIDs: []shoko.SeriesGrouping{grouping},
	}
}

func watchedEpisode(key, title string, viewedAt time.Time, files ...string) plex.Episode {
	return plex.Episode{RatingKey: key, Title: title, Files: files, ViewCount: 1, LastViewedAt: viewedAt}
}

func unwatchedEpisode(key, title string, files ...string) plex.Episode {
	return plex.Episode{RatingKey: key, Title: title, Files: files}
}

type testEngine struct {
	*SyncEngine
	out      *bytes.Buffer
	db       *models.Database
	metrics  *metrics.Metrics
	recorder *tracetest.SpanRecorder
}

func newTestEngine(t *testing.T, identities Identities, connector ServerConnector, metadata MetadataService, gate Confirmer, libraries ...string) *testEngine {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	out := &bytes.Buffer{}
	m := metrics.New()
	engine := NewSyncEngine(identities, connector, metadata, gate, db, m,
		provider.Tracer("test"), NewReporter(out, false), "Home", libraries, discardLogger())
	engine.now = func() time.Time { return testNow }

	return &testEngine{SyncEngine: engine, out: out, db: db, metrics: m, recorder: recorder}
}
