package controllers

import (
	"errors"
	json "github.com/goccy/go-json"
	"guildsnap/internal/models"
	"guildsnap/internal/providers"
	"guildsnap/internal/remote"
	restoreInterfaces "guildsnap/internal/restore/interfaces"
	"guildsnap/internal/services"
	"guildsnap/internal/snapshot/interfaces"
	"io"
	"net/http"
)

const maxRequestBodySize = 1 << 16 // 64 KB

type SnapshotController struct {
	logger  providers.Logger
	service services.SnapshotServiceInterface
	cache   providers.CacheProviderInterface
}

type captureRequest struct {
	DisplayName string `json:"displayName"`
}

type restoreRequest struct {
	TargetGuildID string `json:"targetGuildId"`
}

type restoreAccepted struct {
	Accepted bool   `json:"accepted"`
	JobID    string `json:"jobId"`
}

func NewSnapshotController(logger providers.Logger, service services.SnapshotServiceInterface, cache providers.CacheProviderInterface) *SnapshotController {
	return &SnapshotController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

func listCacheKey(guildID string) string {
	return "list:" + guildID
}

// decodeBody reads an optional JSON body; an empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// writeError maps store, runner and remote errors onto status codes.
func (sc *SnapshotController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, interfaces.ErrInvalidKey):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, restoreInterfaces.ErrJobNotFound), remote.IsNotFound(err):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, restoreInterfaces.ErrRestoreInFlight):
		http.Error(w, "Restore already in progress", http.StatusConflict)
	case errors.Is(err, restoreInterfaces.ErrQueueFull), errors.Is(err, restoreInterfaces.ErrRunnerStopped):
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
	case remote.IsForbidden(err), remote.IsRateLimited(err):
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	default:
		sc.logger.Errorf(providers.TypeApi, "%s %s: %s", r.Method, r.URL.Path, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (sc *SnapshotController) Capture(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guild")
	var req captureRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := sc.service.Capture(r.Context(), guildID, req.DisplayName)
	if err != nil {
		sc.writeError(w, r, err)
		return
	}
	sc.cache.Del(listCacheKey(guildID))
	writeJSON(w, http.StatusCreated, s.Summary())
}

func (sc *SnapshotController) List(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guild")
	key := listCacheKey(guildID)
	if data, ok := sc.cache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	summaries, err := sc.service.List(r.Context(), guildID)
	if err != nil {
		sc.writeError(w, r, err)
		return
	}
	gson, err := json.Marshal(summaries)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	sc.cache.Set(key, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (sc *SnapshotController) Get(w http.ResponseWriter, r *http.Request) {
	s, err := sc.service.Get(r.Context(), r.PathValue("guild"), r.PathValue("id"))
	if err != nil {
		sc.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (sc *SnapshotController) Delete(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guild")
	if err := sc.service.Delete(r.Context(), guildID, r.PathValue("id")); err != nil {
		sc.writeError(w, r, err)
		return
	}
	sc.cache.Del(listCacheKey(guildID))
	w.WriteHeader(http.StatusNoContent)
}

// Restore acknowledges as soon as the snapshot is loaded and queued.
func (sc *SnapshotController) Restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := sc.service.InitiateRestore(r.Context(), r.PathValue("guild"), r.PathValue("id"), req.TargetGuildID)
	if err != nil {
		sc.writeError(w, r, err)
		return
	}
	sc.logger.Infof(providers.TypeApi, "Restore of %s onto %s accepted as job %s", job.SnapshotID, job.TargetGuildID, job.ID)
	writeJSON(w, http.StatusAccepted, restoreAccepted{Accepted: true, JobID: job.ID})
}

func (sc *SnapshotController) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := sc.service.GetJob(r.PathValue("job"))
	if err != nil {
		sc.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (sc *SnapshotController) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := sc.service.ListJobs()
	if jobs == nil {
		jobs = make([]*models.RestoreJob, 0)
	}
	writeJSON(w, http.StatusOK, jobs)
}
