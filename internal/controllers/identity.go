package controllers

import (
	"context"
	"fmt"

	"github.com/amaumene/watchsync/internal/config"
	"github.com/amaumene/watchsync/internal/services/plex"
	"github.com/sirupsen/logrus"
)

// PlexAccounts is the plex.tv account API used to build identities
type PlexAccounts interface {
	SignIn(ctx context.Context, creds plex.Credentials) (*plex.Account, error)
	HomeUsers(ctx context.Context, token string) ([]plex.HomeUser, error)
	SwitchUser(ctx context.Context, token string, userID int64) (string, error)
}

// IdentityResolver expands the configured Plex account into the identities a
// run syncs: the owner (optional) followed by configured home users
type IdentityResolver struct {
	accounts   PlexAccounts
	creds      plex.Credentials
	syncAdmin  bool
	extraUsers []string
	reporter   *Reporter
	logger     *logrus.Logger
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(cfg *config.Config, accounts PlexAccounts, reporter *Reporter, logger *logrus.Logger) *IdentityResolver {
	return &IdentityResolver{
		accounts: accounts,
		creds: plex.Credentials{
			Token:    cfg.PlexToken,
			Username: cfg.PlexUsername,
			Password: cfg.PlexPassword,
		},
		syncAdmin:  cfg.PlexSyncAdmin,
		extraUsers: cfg.PlexExtraUsers,
		reporter:   reporter,
		logger:     logger,
	}
}

// Resolve signs in and returns the identities to process, in order. Only an
// owner sign-in failure is returned as an error; home users that cannot be
// resolved are reported and left out.
func (r *IdentityResolver) Resolve(ctx context.Context) ([]plex.Identity, error) {
	account, err := r.accounts.SignIn(ctx, r.creds)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in to plex: %w", err)
	}

	var identities []plex.Identity
	if r.syncAdmin {
		identities = append(identities, plex.Identity{
			Name:  account.Name(),
			Token: account.AuthToken,
			Admin: true,
		})
	}

	if len(r.extraUsers) == 0 {
		return identities, nil
	}

	users, err := r.accounts.HomeUsers(ctx, account.AuthToken)
	if err != nil {
		r.logger.WithError(err).Error("Failed to get Plex home users, skipping extra users")
		r.reporter.Failure(err)
		return identities, nil
	}

	for _, name := range r.extraUsers {
		identity, err := r.switchTo(ctx, account.AuthToken, users, name)
		if err != nil {
			r.logger.WithError(err).WithField("user", name).Error("Failed to resolve Plex home user")
			r.reporter.Failure(err)
			continue
		}
		identities = append(identities, identity)
	}

	r.logger.WithField("count", len(identities)).Debug("Resolved Plex identities")
	return identities, nil
}

func (r *IdentityResolver) switchTo(ctx context.Context, ownerToken string, users []plex.HomeUser, name string) (plex.Identity, error) {
	for _, user := range users {
		if !user.Matches(name) {
			continue
		}

		token, err := r.accounts.SwitchUser(ctx, ownerToken, user.ID)
		if err != nil {
			return plex.Identity{}, err
		}

		displayName := user.Title
		if displayName == "" {
			displayName = name
		}
		return plex.Identity{Name: displayName, Token: token}, nil
	}
	return plex.Identity{}, fmt.Errorf("plex home user %q not found", name)
}
