// Package backend talks to the Supabase-style sync backend: detection
// inserts, token refresh, and the account endpoints consumed by the
// presentation layer.
//
// Every call here is strictly best-effort from the worker's point of view:
// local streak and blocking state never depend on a call succeeding.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bnema/streakwatch/internal/storage"
)

// ErrUnauthorized is returned on HTTP 401 and drives the one-shot
// refresh-and-retry policy in the dispatcher.
var ErrUnauthorized = errors.New("backend: unauthorized")

const defaultTimeout = 15 * time.Second

// Client is a thin REST client over the backend endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client with the given request timeout. A zero timeout
// falls back to the default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// DetectionRecord is one detection event row.
type DetectionRecord struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Date   string `json:"date"`
}

// TokenPair is the result of a token refresh. RefreshToken may be empty
// when the backend does not rotate it.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResult is the result of a login or signup.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	UserEmail    string
}

// LeaderboardEntry is one row of the public leaderboard view.
type LeaderboardEntry struct {
	Name       string `json:"name"`
	Detections int    `json:"detections"`
}

// InsertDetection submits a detection event. Returns ErrUnauthorized on 401
// so the caller can attempt a token refresh.
func (c *Client) InsertDetection(ctx context.Context, session storage.Session, rec DetectionRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode detection: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, session.SupabaseURL+"/rest/v1/detections", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build detection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", session.SupabaseAnonKey)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insert detection: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		return fmt.Errorf("insert detection: %s", resp.Status)
	}
	return nil
}

// RefreshSession exchanges the refresh token for a new token pair.
func (c *Client) RefreshSession(ctx context.Context, session storage.Session) (TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": session.RefreshToken})
	if err != nil {
		return TokenPair{}, fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		session.SupabaseURL+"/auth/v1/token?grant_type=refresh_token", bytes.NewReader(body))
	if err != nil {
		return TokenPair{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", session.SupabaseAnonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("refresh token: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= 300 {
		return TokenPair{}, fmt.Errorf("refresh token: %s", resp.Status)
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if pair.AccessToken == "" {
		return TokenPair{}, fmt.Errorf("refresh token: no access token in response")
	}
	return pair, nil
}

// authResponse covers the GoTrue token and signup response shapes.
type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Session struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"session"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

// Login performs a password grant.
func (c *Client) Login(ctx context.Context, backendURL, anonKey, email, password string) (AuthResult, error) {
	return c.authCall(ctx, backendURL+"/auth/v1/token?grant_type=password", anonKey, email, password)
}

// SignUp registers a new account. Depending on backend email-confirmation
// settings the result may not carry tokens yet.
func (c *Client) SignUp(ctx context.Context, backendURL, anonKey, email, password string) (AuthResult, error) {
	return c.authCall(ctx, backendURL+"/auth/v1/signup", anonKey, email, password)
}

func (c *Client) authCall(ctx context.Context, endpoint, anonKey, email, password string) (AuthResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return AuthResult{}, fmt.Errorf("encode auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return AuthResult{}, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", anonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AuthResult{}, fmt.Errorf("auth call: %w", err)
	}
	defer drainAndClose(resp.Body)

	var decoded authResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && !errors.Is(err, io.EOF) {
		return AuthResult{}, fmt.Errorf("decode auth response: %w", err)
	}

	if resp.StatusCode >= 300 {
		msg := decoded.ErrorDescription
		if msg == "" {
			msg = decoded.Msg
		}
		if msg == "" {
			msg = resp.Status
		}
		return AuthResult{}, fmt.Errorf("auth call: %s", msg)
	}

	result := AuthResult{
		AccessToken:  decoded.AccessToken,
		RefreshToken: decoded.RefreshToken,
		UserID:       decoded.User.ID,
		UserEmail:    decoded.User.Email,
	}
	// Signup nests tokens under session
	if result.AccessToken == "" && decoded.Session.AccessToken != "" {
		result.AccessToken = decoded.Session.AccessToken
		result.RefreshToken = decoded.Session.RefreshToken
	}
	return result, nil
}

// Leaderboard fetches the top leaderboard rows.
func (c *Client) Leaderboard(ctx context.Context, session storage.Session, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	endpoint := fmt.Sprintf("%s/rest/v1/leaderboard_view?select=name,detections&order=detections.desc&limit=%d",
		session.SupabaseURL, limit)

	var entries []LeaderboardEntry
	if err := c.getJSON(ctx, session, endpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetUsername returns the stored username for the user, or "" when none is
// set.
func (c *Client) GetUsername(ctx context.Context, session storage.Session) (string, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/user_profiles?id=eq.%s&select=username",
		session.SupabaseURL, url.QueryEscape(session.UserID))

	var rows []struct {
		Username string `json:"username"`
	}
	if err := c.getJSON(ctx, session, endpoint, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].Username, nil
}

// SetUsername upserts the user's display name.
func (c *Client) SetUsername(ctx context.Context, session storage.Session, username string) error {
	body, err := json.Marshal([]map[string]string{{"id": session.UserID, "username": username}})
	if err != nil {
		return fmt.Errorf("encode username: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, session.SupabaseURL+"/rest/v1/user_profiles", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build username request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", session.SupabaseAnonKey)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("set username: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		return fmt.Errorf("set username: %s", resp.Status)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, session storage.Session, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", session.SupabaseAnonKey)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		return fmt.Errorf("request %s: %s", endpoint, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// drainAndClose discards the remaining body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
