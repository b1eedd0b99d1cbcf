// Package remote talks to a hosted ProTask server. Client implements
// store.Provider over the server's REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/existflow/protask/internal/logger"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
)

// DefaultServerURL is used until a server is configured
const DefaultServerURL = "http://localhost:8080"

// Session holds the saved login
type Session struct {
	ServerURL string    `json:"server_url"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Client is the HTTP provider. It is safe for concurrent use: the
// refresher polls through it while the TUI may log out.
type Client struct {
	mu          sync.RWMutex
	session     Session
	sessionPath string
	httpClient  *http.Client
}

var _ store.Provider = (*Client)(nil)

// NewClient loads the session file. A non-empty serverURL overrides the
// saved one.
func NewClient(sessionPath, serverURL string) (*Client, error) {
	c := &Client{
		sessionPath: sessionPath,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	if err := c.loadSession(); err != nil {
		return nil, err
	}
	if serverURL != "" {
		c.session.ServerURL = strings.TrimRight(serverURL, "/")
	}
	return c, nil
}

func (c *Client) loadSession() error {
	c.session = Session{ServerURL: DefaultServerURL}

	data, err := os.ReadFile(c.sessionPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("Ignoring corrupt session file", logger.F("path", c.sessionPath), logger.F("error", err))
		return nil
	}
	if s.ServerURL == "" {
		s.ServerURL = DefaultServerURL
	}
	c.session = s
	return nil
}

// replaceSession swaps the whole session under the lock and saves it
func (c *Client) replaceSession(update func(s *Session)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.session
	update(&next)
	c.session = next

	if err := os.MkdirAll(filepath.Dir(c.sessionPath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.sessionPath, data, 0600)
}

// SetServer sets the server URL
func (c *Client) SetServer(serverURL string) error {
	return c.replaceSession(func(s *Session) {
		s.ServerURL = strings.TrimRight(serverURL, "/")
	})
}

// IsLoggedIn returns true if a token is saved
func (c *Client) IsLoggedIn() bool {
	return c.Session().Token != ""
}

// Session returns a copy of the saved session
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// UserID returns the logged in user, which is the owner id for every request
func (c *Client) UserID() string {
	return c.Session().UserID
}

// Register creates a new account and logs in
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return c.authenticate(ctx, "/api/v1/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

// Login authenticates with username and password
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.authenticate(ctx, "/api/v1/login", map[string]string{
		"username": username,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) error {
	var result struct {
		Token     string `json:"token"`
		UserID    string `json:"user_id"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return err
	}

	expires, _ := time.Parse(time.RFC3339, result.ExpiresAt)
	err := c.replaceSession(func(s *Session) {
		s.Token = result.Token
		s.UserID = result.UserID
		s.ExpiresAt = expires
	})
	logger.Info("Logged in", logger.F("server", c.Session().ServerURL), logger.F("user_id", result.UserID))
	return err
}

// Logout ends the server session and forgets the token
func (c *Client) Logout(ctx context.Context) error {
	if c.IsLoggedIn() {
		if err := c.do(ctx, http.MethodPost, "/api/v1/logout", nil, nil); err != nil {
			logger.Warn("Server logout failed", logger.F("error", err))
		}
	}
	return c.replaceSession(func(s *Session) {
		s.Token = ""
		s.UserID = ""
		s.ExpiresAt = time.Time{}
	})
}

// Me returns the logged in user
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &u)
	return u, err
}

// ownerPath appends the owner id so the server can reject a mismatch
func ownerPath(path, ownerID string) string {
	if ownerID == "" {
		return path
	}
	return path + "?owner=" + url.QueryEscape(ownerID)
}

func (c *Client) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	tasks := []model.Task{}
	err := c.do(ctx, http.MethodGet, ownerPath("/api/v1/tasks", ownerID), nil, &tasks)
	return tasks, err
}

func (c *Client) ListMembers(ctx context.Context, ownerID string) ([]model.TeamMember, error) {
	members := []model.TeamMember{}
	err := c.do(ctx, http.MethodGet, ownerPath("/api/v1/members", ownerID), nil, &members)
	return members, err
}

func (c *Client) ListDepartments(ctx context.Context, ownerID string) ([]model.Department, error) {
	departments := []model.Department{}
	err := c.do(ctx, http.MethodGet, ownerPath("/api/v1/departments", ownerID), nil, &departments)
	return departments, err
}

func (c *Client) CreateTask(ctx context.Context, ownerID string, t *model.Task) error {
	return c.do(ctx, http.MethodPost, ownerPath("/api/v1/tasks", ownerID), t, t)
}

func (c *Client) UpdateTask(ctx context.Context, ownerID string, t *model.Task) error {
	return c.do(ctx, http.MethodPut, ownerPath("/api/v1/tasks/"+url.PathEscape(t.ID), ownerID), t, t)
}

func (c *Client) DeleteTask(ctx context.Context, ownerID, id string) error {
	return c.do(ctx, http.MethodDelete, ownerPath("/api/v1/tasks/"+url.PathEscape(id), ownerID), nil, nil)
}

// AttachImage uploads an image as multipart form data
func (c *Client) AttachImage(ctx context.Context, ownerID, taskID, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	server := c.Session().ServerURL
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		server+ownerPath("/api/v1/tasks/"+url.PathEscape(taskID)+"/image", ownerID), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result struct {
		ImageURL string `json:"image_url"`
	}
	if err := c.send(req, &result); err != nil {
		return "", err
	}
	if strings.HasPrefix(result.ImageURL, "/") {
		return server + result.ImageURL, nil
	}
	return result.ImageURL, nil
}

func (c *Client) CreateMember(ctx context.Context, ownerID string, m *model.TeamMember) error {
	return c.do(ctx, http.MethodPost, ownerPath("/api/v1/members", ownerID), m, m)
}

func (c *Client) DeleteMember(ctx context.Context, ownerID, id string) error {
	return c.do(ctx, http.MethodDelete, ownerPath("/api/v1/members/"+url.PathEscape(id), ownerID), nil, nil)
}

func (c *Client) CreateDepartment(ctx context.Context, ownerID string, d *model.Department) error {
	return c.do(ctx, http.MethodPost, ownerPath("/api/v1/departments", ownerID), d, d)
}

func (c *Client) DeleteDepartment(ctx context.Context, ownerID, id string) error {
	return c.do(ctx, http.MethodDelete, ownerPath("/api/v1/departments/"+url.PathEscape(id), ownerID), nil, nil)
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Session().ServerURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send adds the bearer token and maps error statuses onto store errors
func (c *Client) send(req *http.Request, out any) error {
	if token := c.Session().Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(req, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(req *http.Request, resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &payload) != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(raw))
	}

	logger.Debug("Request rejected",
		logger.F("method", req.Method),
		logger.F("path", req.URL.Path),
		logger.F("status", resp.StatusCode),
		logger.F("error", payload.Error))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", payload.Error, store.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, store.ErrNotFound)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
}
