// Package gcal is the calendar-store collaborator: a thin Google Calendar
// client exposing the four operations parsed commands map onto.
package gcal

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrNotAuthenticated is the precondition failure for every calendar
// operation: no valid, non-expired credential is available. It is never
// retried internally; the caller owns re-authentication.
var ErrNotAuthenticated = errors.New("calendar credential missing or expired")

// IsNotAuthenticated reports whether err is the credential precondition
// failure.
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated)
}

// Client wraps the Google Calendar API client for a single calendar.
type Client struct {
	service    *calendar.Service
	config     *oauth2.Config
	tokenFile  string
	token      *oauth2.Token
	calendarID string
}

// NewClient creates a calendar client from a credentials file and a stored
// token. A missing or expired token is not an error here: the client is
// created unauthenticated and every operation fails its precondition until a
// valid token exists.
func NewClient(credentialsFile, tokenFile string) (*Client, error) {
	config, err := loadOAuthConfig(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth config: %w", err)
	}

	client := &Client{
		config:     config,
		tokenFile:  tokenFile,
		calendarID: "primary",
	}

	if token, err := loadToken(tokenFile); err == nil {
		client.token = token
		if err := client.tryInitService(); err != nil {
			fmt.Printf("Note: could not initialize calendar service with stored token: %v\n", err)
		}
	}

	return client, nil
}

// tryInitService initializes the service, refreshing the token if needed.
func (c *Client) tryInitService() error {
	if c.token == nil {
		return ErrNotAuthenticated
	}

	ctx := context.Background()

	if !c.token.Valid() && c.token.RefreshToken != "" {
		tokenSource := c.config.TokenSource(ctx, c.token)
		newToken, err := tokenSource.Token()
		if err != nil {
			return fmt.Errorf("failed to refresh token: %w", err)
		}
		c.token = newToken
		if err := saveToken(c.tokenFile, newToken); err != nil {
			fmt.Printf("Warning: could not save refreshed token: %v\n", err)
		}
	}

	if !c.token.Valid() {
		return ErrNotAuthenticated
	}

	httpClient := c.config.Client(ctx, c.token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("failed to create calendar service: %w", err)
	}

	c.service = service
	return nil
}

// IsAuthenticated reports whether the four calendar operations can run.
func (c *Client) IsAuthenticated() bool {
	return c != nil && c.service != nil
}

// ensureService is the shared precondition check.
func (c *Client) ensureService() error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}
