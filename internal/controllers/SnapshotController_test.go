package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/providers"
	"guildsnap/internal/remote"
	restoreInterfaces "guildsnap/internal/restore/interfaces"
	"guildsnap/internal/snapshot/interfaces"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- local mocks (scoped to controller tests) ---

type mockLogger struct{}

func (m *mockLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Close()                                                  {}

type restoreCall struct {
	guild, id, target string
}

type mockService struct {
	snapshots    map[string]*models.Snapshot
	jobs         []*models.RestoreJob
	captureErr   error
	restoreErr   error
	captureNames []string
	restoreCalls []restoreCall
	listCalls    int
}

func (m *mockService) Capture(_ context.Context, guildID, displayName string) (*models.Snapshot, error) {
	m.captureNames = append(m.captureNames, displayName)
	if m.captureErr != nil {
		return nil, m.captureErr
	}
	s := &models.Snapshot{ID: "new", OwnerScopeID: guildID, DisplayName: displayName, Roles: []models.RoleRecord{{Name: models.DefaultRoleName}}}
	if m.snapshots == nil {
		m.snapshots = make(map[string]*models.Snapshot)
	}
	m.snapshots[s.ID] = s
	return s, nil
}

func (m *mockService) List(_ context.Context, guildID string) ([]models.SnapshotSummary, error) {
	m.listCalls++
	out := make([]models.SnapshotSummary, 0)
	for _, s := range m.snapshots {
		if s.OwnerScopeID == guildID {
			out = append(out, s.Summary())
		}
	}
	return out, nil
}

func (m *mockService) Get(_ context.Context, guildID, id string) (*models.Snapshot, error) {
	if s, ok := m.snapshots[id]; ok && s.OwnerScopeID == guildID {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", interfaces.ErrNotFound, guildID, id)
}

func (m *mockService) Delete(ctx context.Context, guildID, id string) error {
	if _, err := m.Get(ctx, guildID, id); err != nil {
		return err
	}
	delete(m.snapshots, id)
	return nil
}

func (m *mockService) InitiateRestore(ctx context.Context, guildID, id, target string) (*models.RestoreJob, error) {
	m.restoreCalls = append(m.restoreCalls, restoreCall{guild: guildID, id: id, target: target})
	if m.restoreErr != nil {
		return nil, m.restoreErr
	}
	if _, err := m.Get(ctx, guildID, id); err != nil {
		return nil, err
	}
	if target == "" {
		target = guildID
	}
	job := &models.RestoreJob{ID: "job-1", SnapshotID: id, TargetGuildID: target, Status: models.JobQueued}
	m.jobs = append(m.jobs, job)
	return job, nil
}

func (m *mockService) GetJob(id string) (*models.RestoreJob, error) {
	for _, j := range m.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, restoreInterfaces.ErrJobNotFound
}

func (m *mockService) ListJobs() []*models.RestoreJob { return m.jobs }

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache                     { return &mockCache{data: make(map[string][]byte)} }
func (m *mockCache) Get(key string) ([]byte, bool) { v, ok := m.data[key]; return v, ok }
func (m *mockCache) Set(key string, value []byte)  { m.data[key] = value }
func (m *mockCache) Del(key string)                { delete(m.data, key) }

// --- helpers ---

func newTestMux(svc *mockService, cache *mockCache) *http.ServeMux {
	sc := NewSnapshotController(&mockLogger{}, svc, cache)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /guilds/{guild}/snapshots", sc.Capture)
	mux.HandleFunc("GET /guilds/{guild}/snapshots", sc.List)
	mux.HandleFunc("GET /guilds/{guild}/snapshots/{id}", sc.Get)
	mux.HandleFunc("DELETE /guilds/{guild}/snapshots/{id}", sc.Delete)
	mux.HandleFunc("POST /guilds/{guild}/snapshots/{id}/restore", sc.Restore)
	mux.HandleFunc("GET /restores/{job}", sc.GetJob)
	mux.HandleFunc("GET /restores", sc.ListJobs)
	return mux
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func seeded() *mockService {
	return &mockService{snapshots: map[string]*models.Snapshot{
		"s1": {ID: "s1", OwnerScopeID: "42", DisplayName: "first", CapturedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
}

// --- Capture ---

func TestCapture_ReturnsSummary(t *testing.T) {
	svc := &mockService{}
	mux := newTestMux(svc, newMockCache())

	rr := serve(mux, http.MethodPost, "/guilds/42/snapshots", `{"displayName":"before raid"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var summary models.SnapshotSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, "new", summary.ID)
	assert.Equal(t, "before raid", summary.DisplayName)
	assert.Equal(t, 1, summary.RoleCount)
}

func TestCapture_EmptyBodyAllowed(t *testing.T) {
	svc := &mockService{}
	rr := serve(newTestMux(svc, newMockCache()), http.MethodPost, "/guilds/42/snapshots", "")

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []string{""}, svc.captureNames)
}

func TestCapture_InvalidJSON(t *testing.T) {
	svc := &mockService{}
	rr := serve(newTestMux(svc, newMockCache()), http.MethodPost, "/guilds/42/snapshots", "not json")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, svc.captureNames)
}

func TestCapture_OversizedBody(t *testing.T) {
	svc := &mockService{}
	big := `{"displayName":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	rr := serve(newTestMux(svc, newMockCache()), http.MethodPost, "/guilds/42/snapshots", big)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCapture_RemoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown guild", &remote.APIError{Status: http.StatusNotFound}, http.StatusNotFound},
		{"no access", &remote.APIError{Status: http.StatusForbidden}, http.StatusBadGateway},
		{"rate limited", &remote.APIError{Status: http.StatusTooManyRequests}, http.StatusBadGateway},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{captureErr: fmt.Errorf("capture guild 42: %w", tt.err)}
			rr := serve(newTestMux(svc, newMockCache()), http.MethodPost, "/guilds/42/snapshots", "")
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

// --- List ---

func TestList_CachedAndInvalidatedOnWrite(t *testing.T) {
	svc := seeded()
	cache := newMockCache()
	mux := newTestMux(svc, cache)

	rr := serve(mux, http.MethodGet, "/guilds/42/snapshots", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	var list []models.SnapshotSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].ID)

	serve(mux, http.MethodGet, "/guilds/42/snapshots", "")
	assert.Equal(t, 1, svc.listCalls, "second list served from cache")

	serve(mux, http.MethodPost, "/guilds/42/snapshots", "")
	rr = serve(mux, http.MethodGet, "/guilds/42/snapshots", "")
	assert.Equal(t, 2, svc.listCalls)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	serve(mux, http.MethodDelete, "/guilds/42/snapshots/s1", "")
	serve(mux, http.MethodGet, "/guilds/42/snapshots", "")
	assert.Equal(t, 3, svc.listCalls)
}

func TestList_EmptyIsArray(t *testing.T) {
	rr := serve(newTestMux(&mockService{}, newMockCache()), http.MethodGet, "/guilds/42/snapshots", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

// --- Get / Delete ---

func TestGet_FoundAndMissing(t *testing.T) {
	mux := newTestMux(seeded(), newMockCache())

	rr := serve(mux, http.MethodGet, "/guilds/42/snapshots/s1", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	var s models.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, "first", s.DisplayName)

	rr = serve(mux, http.MethodGet, "/guilds/42/snapshots/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(mux, http.MethodGet, "/guilds/43/snapshots/s1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "snapshots are scoped to their guild")
}

func TestDelete(t *testing.T) {
	mux := newTestMux(seeded(), newMockCache())

	rr := serve(mux, http.MethodDelete, "/guilds/42/snapshots/s1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(mux, http.MethodDelete, "/guilds/42/snapshots/s1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Restore ---

func TestRestore_Accepted(t *testing.T) {
	svc := seeded()
	mux := newTestMux(svc, newMockCache())

	rr := serve(mux, http.MethodPost, "/guilds/42/snapshots/s1/restore", `{"targetGuildId":"77"}`)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.JSONEq(t, `{"accepted":true,"jobId":"job-1"}`, rr.Body.String())
	assert.Equal(t, []restoreCall{{guild: "42", id: "s1", target: "77"}}, svc.restoreCalls)
}

func TestRestore_DefaultTarget(t *testing.T) {
	svc := seeded()
	rr := serve(newTestMux(svc, newMockCache()), http.MethodPost, "/guilds/42/snapshots/s1/restore", "")

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "", svc.restoreCalls[0].target)
	assert.Equal(t, "42", svc.jobs[0].TargetGuildID)
}

func TestRestore_UnknownSnapshot(t *testing.T) {
	svc := seeded()
	rr := serve(newTestMux(svc, newMockCache()), http.MethodPost, "/guilds/42/snapshots/nope/restore", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, svc.jobs)
}

func TestRestore_RunnerErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{restoreInterfaces.ErrRestoreInFlight, http.StatusConflict},
		{restoreInterfaces.ErrQueueFull, http.StatusServiceUnavailable},
		{restoreInterfaces.ErrRunnerStopped, http.StatusServiceUnavailable},
		{interfaces.ErrInvalidKey, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := seeded()
			svc.restoreErr = fmt.Errorf("submit restore of s1: %w", tt.err)
			rr := serve(newTestMux(svc, newMockCache()), http.MethodPost, "/guilds/42/snapshots/s1/restore", "")
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

// --- Jobs ---

func TestJobs_GetAndList(t *testing.T) {
	svc := seeded()
	mux := newTestMux(svc, newMockCache())
	serve(mux, http.MethodPost, "/guilds/42/snapshots/s1/restore", "")

	rr := serve(mux, http.MethodGet, "/restores/job-1", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	var job models.RestoreJob
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
	assert.Equal(t, models.JobQueued, job.Status)
	assert.Equal(t, "s1", job.SnapshotID)

	rr = serve(mux, http.MethodGet, "/restores/job-9", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(mux, http.MethodGet, "/restores", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	var jobs []models.RestoreJob
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 1)
}

func TestJobs_EmptyListIsArray(t *testing.T) {
	rr := serve(newTestMux(&mockService{}, newMockCache()), http.MethodGet, "/restores", "")
	assert.JSONEq(t, "[]", rr.Body.String())
}
