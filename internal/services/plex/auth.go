package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Credentials used to sign in the server owner. Token wins when both are set.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// Account is a signed-in plex.tv account
type Account struct {
	ID        int64  `json:"id"`
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	Title     string `json:"title"`
	AuthToken string `json:"authToken"`
}

// Name is the display name Plex shows for the account
func (a *Account) Name() string {
	if a.Title != "" {
		return a.Title
	}
	return a.Username
}

// Identity is one viewing context the sync runs as: the owner or a home user
type Identity struct {
	Name  string
	Token string
	Admin bool
}

func (i Identity) String() string {
	return i.Name
}

// HomeUser is a managed or home account reachable through the owner's session
type HomeUser struct {
	ID       int64  `xml:"id,attr"`
	UUID     string `xml:"uuid,attr"`
	Title    string `xml:"title,attr"`
	Username string `xml:"username,attr"`
	Admin    string `xml:"admin,attr"`
}

// Matches reports whether the configured name refers to this user
func (u HomeUser) Matches(name string) bool {
	return strings.EqualFold(u.Title, name) || (u.Username != "" && strings.EqualFold(u.Username, name))
}

type homeUsersResponse struct {
	Users []HomeUser `xml:"User"`
}

type switchUserResponse struct {
	AuthenticationToken string `xml:"authenticationToken,attr"`
	Title               string `xml:"title,attr"`
}

// SignIn authenticates the server owner with a token or username/password
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*Account, error) {
	var account Account

	if token := strings.TrimSpace(creds.Token); token != "" {
		err := c.doRequest(ctx, request{
			method: http.MethodGet,
			url:    c.baseURL + "/api/v2/user",
			token:  token,
			json:   true,
		}, &account)
		if err != nil {
			return nil, fmt.Errorf("plex sign in: %w", err)
		}
		if account.AuthToken == "" {
			account.AuthToken = token
		}
		return &account, nil
	}

	form := url.Values{}
	form.Set("login", creds.Username)
	form.Set("password", creds.Password)
	err := c.doRequest(ctx, request{
		method: http.MethodPost,
		url:    c.baseURL + "/api/v2/users/signin",
		form:   form,
		json:   true,
	}, &account)
	if err != nil {
		return nil, fmt.Errorf("plex sign in: %w", err)
	}
	if account.AuthToken == "" {
		return nil, fmt.Errorf("plex sign in: missing authToken in response")
	}
	return &account, nil
}

// HomeUsers lists the users of the owner's Plex Home
func (c *Client) HomeUsers(ctx context.Context, token string) ([]HomeUser, error) {
	var resp homeUsersResponse
	err := c.doRequest(ctx, request{
		method: http.MethodGet,
		url:    c.baseURL + "/api/home/users",
		token:  token,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get home users: %w", err)
	}
	return resp.Users, nil
}

// SwitchUser exchanges the owner's token for a home user's token
func (c *Client) SwitchUser(ctx context.Context, token string, userID int64) (string, error) {
	var resp switchUserResponse
	err := c.doRequest(ctx, request{
		method: http.MethodPost,
		url:    fmt.Sprintf("%s/api/home/users/%d/switch", c.baseURL, userID),
		token:  token,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to switch to home user %d: %w", userID, err)
	}
	if resp.AuthenticationToken == "" {
		return "", fmt.Errorf("failed to switch to home user %d: missing authenticationToken", userID)
	}
	return resp.AuthenticationToken, nil
}
