package plex

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/amaumene/watchsync/internal/models"
	"github.com/amaumene/watchsync/internal/utils"
	gocache "github.com/patrickmn/go-cache"
)

type resourceList struct {
	Resources []resource `xml:"resource"`
}

type resource struct {
	Name        string               `xml:"name,attr"`
	AccessToken string               `xml:"accessToken,attr"`
	Provides    string               `xml:"provides,attr"`
	Connections []resourceConnection `xml:"connections>connection"`
}

type resourceConnection struct {
	URI      string `xml:"uri,attr"`
	Protocol string `xml:"protocol,attr"`
	Local    string `xml:"local,attr"`
	Relay    string `xml:"relay,attr"`
}

// Server is a connection to one Plex Media Server as a given identity
type Server struct {
	Name  string
	URL   string
	Token string

	client *Client
}

// Section is a library section on a Plex Media Server
type Section struct {
	Key   string `xml:"key,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type sectionsResponse struct {
	Directories []Section `xml:"Directory"`
}

// ResolveServer finds the named server among the resources visible to token
// and picks its best connection
func (c *Client) ResolveServer(ctx context.Context, token, name string) (*Server, error) {
	var list resourceList
	err := c.doRequest(ctx, request{
		method: http.MethodGet,
		url:    c.baseURL + "/api/v2/resources?includeHttps=1&includeRelay=1",
		token:  token,
	}, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to get plex resources: %w", err)
	}

	for _, res := range list.Resources {
		if !strings.Contains(res.Provides, "server") || !strings.EqualFold(res.Name, name) {
			continue
		}

		uri := selectBestConnection(res.Connections)
		if uri == "" {
			return nil, &models.ConnectError{Service: models.ServicePlex, Target: name, Err: fmt.Errorf("server has no usable connection")}
		}

		serverToken := strings.TrimSpace(res.AccessToken)
		if serverToken == "" {
			serverToken = token
		}
		return &Server{Name: res.Name, URL: uri, Token: serverToken, client: c}, nil
	}

	return nil, &models.ConnectError{Service: models.ServicePlex, Target: name, Err: fmt.Errorf("server name not found")}
}

func selectBestConnection(connections []resourceConnection) string {
	bestScore := -1 << 31
	bestURL := ""
	for _, conn := range connections {
		uri := strings.TrimSpace(conn.URI)
		if uri == "" {
			continue
		}

		score := 0
		switch strings.ToLower(strings.TrimSpace(conn.Protocol)) {
		case "https":
			score += 50
		case "":
		default:
			score -= 10
		}
		if strings.Contains(uri, ".plex.direct") {
			score += 30
		}
		if parseBool(conn.Local) {
			score += 5
		}
		if parseBool(conn.Relay) {
			score -= 20
		}

		if score > bestScore {
			bestScore = score
			bestURL = strings.TrimRight(uri, "/")
		}
	}
	return bestURL
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

// Sections lists the server's library sections. Results are cached per
// server and token.
func (s *Server) Sections(ctx context.Context) ([]Section, error) {
	cacheKey := s.URL + "|" + s.Token
	if cached, ok := s.client.sections.Get(cacheKey); ok {
		return cached.([]Section), nil
	}

	var resp sectionsResponse
	err := s.client.doRequest(ctx, request{
		method: http.MethodGet,
		url:    s.URL + "/library/sections",
		token:  s.Token,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get plex sections: %w", err)
	}

	s.client.sections.Set(cacheKey, resp.Directories, gocache.DefaultExpiration)
	return resp.Directories, nil
}

// Section looks a library section up by name, case-insensitively
func (s *Server) Section(ctx context.Context, name string) (*Section, error) {
	sections, err := s.Sections(ctx)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(sections))
	for i := range sections {
		if strings.EqualFold(sections[i].Title, name) {
			return &sections[i], nil
		}
		titles = append(titles, sections[i].Title)
	}

	cause := fmt.Errorf("library section not found")
	if suggestion := utils.Suggest(name, titles); suggestion != "" {
		cause = fmt.Errorf("library section not found, did you mean %q?", suggestion)
	}
	return nil, &models.ConnectError{Service: models.ServicePlex, Target: s.Name + "/" + name, Err: cause}
}
