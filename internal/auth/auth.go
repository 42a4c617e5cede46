// Package auth is the sign-in boundary: email/password against the
// store backend and Google OAuth. It owns no schedule logic; it only
// produces a session the rest of the app treats as opaque.
package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"storehours/internal/cache"
)

const sessionKey = "auth_session"

// ErrInvalidCredentials is returned when the backend rejects a sign-in.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNoSession is returned when no stored session exists.
var ErrNoSession = errors.New("not signed in")

// User identifies the signed-in user.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the persisted sign-in state.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	Source    string    `json:"source"` // "api" or "google"
	CreatedAt time.Time `json:"created_at"`
}

// Client signs users in against the store backend.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	store      cache.Store
	google     *oauth2.Config
}

// NewClient constructs an auth client. googleClientID/Secret may be
// empty when Google sign-in is disabled.
func NewClient(baseURL, username, password string, store cache.Store, googleClientID, googleClientSecret, googleRedirectURL string) *Client {
	c := &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		store:      store,
	}
	if googleClientID != "" {
		c.google = &oauth2.Config{
			ClientID:     googleClientID,
			ClientSecret: googleClientSecret,
			RedirectURL:  googleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return c
}

// SignInWithEmail exchanges email/password for a token, verifies it,
// and persists the session.
func (c *Client) SignInWithEmail(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.basicAuth())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sign in: http %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}
	if payload.Token == "" {
		return nil, errors.New("no token received from server")
	}

	user, err := c.verifyToken(ctx, payload.Token)
	if err != nil {
		return nil, err
	}

	session := &Session{
		Token:     payload.Token,
		User:      *user,
		Source:    "api",
		CreatedAt: time.Now(),
	}
	if err := c.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SignInWithGoogle exchanges an OAuth authorization code for a Google
// token and persists the session. The ID token carried in the token
// response stands in for the backend token.
func (c *Client) SignInWithGoogle(ctx context.Context, code string) (*Session, error) {
	if c.google == nil {
		return nil, errors.New("google sign-in not configured")
	}

	token, err := c.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google exchange: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("no id_token in google response")
	}

	email, name := claimsFromIDToken(idToken)
	session := &Session{
		Token:     idToken,
		User:      User{Email: email, Name: name},
		Source:    "google",
		CreatedAt: time.Now(),
	}
	if err := c.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CurrentSession returns the persisted session, or ErrNoSession.
func (c *Client) CurrentSession(ctx context.Context) (*Session, error) {
	data, err := c.store.Get(ctx, sessionKey)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// SignOut discards the persisted session.
func (c *Client) SignOut(ctx context.Context) error {
	return c.store.Delete(ctx, sessionKey)
}

func (c *Client) verifyToken(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/verify", http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("verify token: http %d", resp.StatusCode)
	}

	var payload struct {
		User User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	return &payload.User, nil
}

func (c *Client) saveSession(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, sessionKey, data)
}

func (c *Client) basicAuth() string {
	credentials := fmt.Sprintf("%s:%s", c.username, c.password)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

// claimsFromIDToken pulls email and name out of an unverified JWT
// payload. Verification is the backend's job; these fields only label
// the local session.
func claimsFromIDToken(idToken string) (email, name string) {
	parts := bytes.Split([]byte(idToken), []byte("."))
	if len(parts) != 3 {
		return "", ""
	}
	payload, err := base64.RawURLEncoding.DecodeString(string(parts[1]))
	if err != nil {
		return "", ""
	}
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", ""
	}
	return claims.Email, claims.Name
}
