package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/existflow/protask/internal/aggregate"
	"github.com/existflow/protask/internal/model"
	"github.com/existflow/protask/internal/store"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeStore keeps records per owner in memory
type fakeStore struct {
	mu          sync.Mutex
	tasks       map[string][]model.Task
	members     map[string][]model.TeamMember
	departments map[string][]model.Department
	uploads     map[string]attachment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:       map[string][]model.Task{},
		members:     map[string][]model.TeamMember{},
		departments: map[string][]model.Department{},
		uploads:     map[string]attachment{},
	}
}

func (f *fakeStore) ListTasks(_ context.Context, owner string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Task{}, f.tasks[owner]...), nil
}

func (f *fakeStore) ListMembers(_ context.Context, owner string) ([]model.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TeamMember{}, f.members[owner]...), nil
}

func (f *fakeStore) ListDepartments(_ context.Context, owner string) ([]model.Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Department{}, f.departments[owner]...), nil
}

func (f *fakeStore) CreateTask(_ context.Context, owner string, t *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[owner] = append(f.tasks[owner], *t)
	return nil
}

func (f *fakeStore) UpdateTask(_ context.Context, owner string, t *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks[owner] {
		if f.tasks[owner][i].ID == t.ID {
			f.tasks[owner][i] = *t
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", t.ID, store.ErrNotFound)
}

func (f *fakeStore) DeleteTask(_ context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks[owner] {
		if f.tasks[owner][i].ID == id {
			f.tasks[owner] = append(f.tasks[owner][:i], f.tasks[owner][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", id, store.ErrNotFound)
}

func (f *fakeStore) AttachImage(_ context.Context, owner, taskID, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks[owner] {
		if f.tasks[owner][i].ID == taskID {
			id := fmt.Sprintf("a%d", len(f.uploads)+1)
			f.uploads[owner+"/"+id] = attachment{Filename: filename, ContentType: http.DetectContentType(data), Data: data}
			url := "/api/v1/attachments/" + id
			f.tasks[owner][i].ImageURL = url
			return url, nil
		}
	}
	return "", fmt.Errorf("task %s: %w", taskID, store.ErrNotFound)
}

func (f *fakeStore) attachment(_ context.Context, owner, id string) (attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.uploads[owner+"/"+id]
	if !ok {
		return a, store.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) CreateMember(_ context.Context, owner string, m *model.TeamMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = fmt.Sprintf("m%d", len(f.members[owner])+1)
	}
	f.members[owner] = append(f.members[owner], *m)
	return nil
}

func (f *fakeStore) DeleteMember(_ context.Context, owner, id string) error {
	return store.ErrNotFound
}

func (f *fakeStore) CreateDepartment(_ context.Context, owner string, d *model.Department) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == "" {
		d.ID = fmt.Sprintf("d%d", len(f.departments[owner])+1)
	}
	f.departments[owner] = append(f.departments[owner], *d)
	return nil
}

func (f *fakeStore) DeleteDepartment(_ context.Context, owner, id string) error {
	return store.ErrNotFound
}

func (f *fakeStore) Close() error { return nil }

// newTestServer accepts the tokens "alice" and "bob" plus an expired "old"
func newTestServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()
	data := newFakeStore()
	s := newServer(nil, data)
	s.now = func() time.Time { return testNow }
	s.lookupSession = func(_ context.Context, token string) (model.Session, error) {
		switch token {
		case "alice", "bob":
			return model.Session{UserID: "user-" + token, Token: token, ExpiresAt: testNow.Add(time.Hour)}, nil
		case "old":
			return model.Session{UserID: "user-old", Token: token, ExpiresAt: testNow.Add(-time.Hour)}, nil
		}
		return model.Session{}, store.ErrUnauthorized
	}
	return s, data
}

func do(s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestAuthMiddleware(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nobody", http.StatusUnauthorized},
		{"expired token", "Bearer old", http.StatusUnauthorized},
		{"valid token", "Bearer alice", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestOwnerMismatchForbidden(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := do(s, http.MethodGet, "/api/v1/tasks?owner=user-bob", "alice", nil); rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
	if rec := do(s, http.MethodGet, "/api/v1/tasks?owner=user-alice", "alice", nil); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for own owner id, got %d", rec.Code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s, data := newTestServer(t)

	rec := do(s, http.MethodPost, "/api/v1/tasks", "alice", map[string]any{
		"title":           "Calibrate scale",
		"priority":        "High",
		"estimated_hours": 3,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Status != model.StatusPending || created.CreatedBy != "user-alice" {
		t.Errorf("Unexpected created task: %+v", created)
	}

	// Bob cannot see Alice's tasks
	if tasks, _ := data.ListTasks(context.Background(), "user-bob"); len(tasks) != 0 {
		t.Errorf("Expected no tasks for bob, got %d", len(tasks))
	}

	created.Status = model.StatusCompleted
	rec = do(s, http.MethodPut, "/api/v1/tasks/"+created.ID, "alice", created)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	tasks, _ := data.ListTasks(context.Background(), "user-alice")
	if len(tasks) != 1 || tasks[0].CompletedDate == nil || !tasks[0].CompletedDate.Equal(testNow) {
		t.Errorf("Expected completed date stamped, got %+v", tasks)
	}

	if rec := do(s, http.MethodDelete, "/api/v1/tasks/"+created.ID, "bob", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting another owner's task, got %d", rec.Code)
	}
	if rec := do(s, http.MethodDelete, "/api/v1/tasks/"+created.ID, "alice", nil); rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"priority": "Low"}},
		{"bad priority", map[string]any{"title": "x", "priority": "Whenever"}},
		{"negative hours", map[string]any{"title": "x", "estimated_hours": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(s, http.MethodPost, "/api/v1/tasks", "alice", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestMembersAndDepartments(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := do(s, http.MethodPost, "/api/v1/members", "alice", map[string]string{"name": ""}); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for nameless member, got %d", rec.Code)
	}
	if rec := do(s, http.MethodPost, "/api/v1/members", "alice", map[string]string{"name": "Ana García"}); rec.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", rec.Code)
	}
	if rec := do(s, http.MethodPost, "/api/v1/departments", "alice", map[string]string{"name": "Quality"}); rec.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", rec.Code)
	}

	rec := do(s, http.MethodGet, "/api/v1/members", "alice", nil)
	var members []model.TeamMember
	if err := json.Unmarshal(rec.Body.Bytes(), &members); err != nil || len(members) != 1 {
		t.Errorf("Expected one member, got %s", rec.Body.String())
	}

	if rec := do(s, http.MethodDelete, "/api/v1/departments/nope", "alice", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	s, data := newTestServer(t)
	ctx := context.Background()

	past := testNow.Add(-48 * time.Hour)
	_ = data.CreateMember(ctx, "user-alice", &model.TeamMember{ID: "m1", Name: "Ana"})
	_ = data.CreateTask(ctx, "user-alice", &model.Task{ID: "t1", Title: "a", Priority: model.PriorityUrgent, Status: model.StatusPending, AssignedTo: "m1", EstimatedHours: 10, EndDate: &past})
	_ = data.CreateTask(ctx, "user-alice", &model.Task{ID: "t2", Title: "b", Priority: model.PriorityLow, Status: model.StatusCompleted, CompletedDate: &past})

	rec := do(s, http.MethodGet, "/api/v1/dashboard", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var d aggregate.Dashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.Total != 2 || d.Status.Delayed != 1 || d.Status.Completed != 1 {
		t.Errorf("Unexpected status counts: %+v", d.Status)
	}
	if d.Planning.UnplannedPercentage != 50 || !d.Planning.Alert {
		t.Errorf("Unexpected planning mix: %+v", d.Planning)
	}
	if len(d.Workload) != 1 || d.Workload[0].Hours != 10 {
		t.Errorf("Unexpected workload: %+v", d.Workload)
	}
	if !d.ComputedAt.Equal(testNow) {
		t.Errorf("Expected computed at %v, got %v", testNow, d.ComputedAt)
	}
}

func TestUploadImage(t *testing.T) {
	s, data := newTestServer(t)
	_ = data.CreateTask(context.Background(), "user-alice", &model.Task{ID: "t1", Title: "Leak", Priority: model.PriorityLow, Status: model.StatusPending})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, _ := w.CreateFormFile("image", "leak.png")
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/t1/image", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer alice")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	url := resp["image_url"]
	if !strings.HasPrefix(url, "/api/v1/attachments/") {
		t.Fatalf("Unexpected image url %q", url)
	}

	rec = do(s, http.MethodGet, url, "alice", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("Expected png attachment, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec := do(s, http.MethodGet, url, "bob", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for other owner, got %d", rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{DefaultUploadLimit, "5120K"},
		{1, "1K"},
		{1500, "2K"},
	}
	for _, tt := range tests {
		if got := bodyLimit(tt.n); got != tt.want {
			t.Errorf("bodyLimit(%d): expected %s, got %s", tt.n, tt.want, got)
		}
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		req  registerRequest
		want bool
	}{
		{registerRequest{"ana", "ana@example.com", "longenough"}, true},
		{registerRequest{"ana", "ana@example.com", "short"}, false},
		{registerRequest{"ana", "not-an-email", "longenough"}, false},
		{registerRequest{"", "ana@example.com", "longenough"}, false},
	}
	for _, tt := range tests {
		if got := validateRegistration(tt.req) == ""; got != tt.want {
			t.Errorf("validateRegistration(%+v): expected %v, got %v", tt.req, tt.want, got)
		}
	}
}
