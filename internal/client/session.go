package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
)

// Session is an authenticated connection to the API. It is created by Login,
// holds the access token and the cookie jar carrying the refresh token, and
// is torn down by Logout. Callers pass it explicitly; there is no ambient
// global session.
type Session struct {
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	accessToken string
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type authResponse struct {
	OK          bool   `json:"ok"`
	AccessToken string `json:"accessToken"`
	Message     string `json:"message"`
	Error       string `json:"error"`
}

// Register creates a new account. No session is required or created.
func Register(ctx context.Context, baseURL, username, password string) error {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/auth/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if !out.OK {
		return &APIError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	return nil
}

// Login authenticates against the API and returns a live session. The
// refresh token arrives as an HTTP-only cookie and stays in the jar.
func Login(ctx context.Context, baseURL, username, password string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar},
	}

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: out.Error}
	}

	s.accessToken = out.AccessToken
	return s, nil
}

// Logout clears the server-side cookie and invalidates the session object.
func (s *Session) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
	return nil
}

// refresh exchanges the refresh cookie for a new access token.
func (s *Session) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/auth/refresh", nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if !out.OK {
		return &APIError{StatusCode: resp.StatusCode, Message: out.Error}
	}

	s.mu.Lock()
	s.accessToken = out.AccessToken
	s.mu.Unlock()
	return nil
}

func (s *Session) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// do performs an authenticated JSON request. A 401 is retried once after
// refreshing the access token through the cookie jar.
func (s *Session) do(ctx context.Context, method, path string, payload, out interface{}) error {
	resp, err := s.attempt(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if err := s.refresh(ctx); err != nil {
			return err
		}
		resp, err = s.attempt(ctx, method, path, payload)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Session) attempt(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token())

	return s.http.Do(req)
}
