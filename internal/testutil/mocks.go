package testutil

import (
	"context"
	"fmt"
	"guildsnap/internal/models"
	"guildsnap/internal/providers"
	"guildsnap/internal/snapshot/interfaces"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Entries returns a copy of the recorded entries for one level and category.
func (m *MockLogger) Entries(level string, t providers.TypeEnum) []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LogEntry
	for _, e := range m.Logs {
		if e.Level == level && e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts
// restore operations by "op/result".
type MockMetrics struct {
	mu         sync.Mutex
	Operations map[string]int
	Jobs       map[string]int
	Captures   []bool
	InFlight   []int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{Operations: make(map[string]int), Jobs: make(map[string]int)}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) ObserveRestoreDuration(_ time.Duration)           {}

func (m *MockMetrics) ObserveCapture(_ time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Captures = append(m.Captures, success)
}

func (m *MockMetrics) IncRestoreJobs(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Jobs[status]++
}

func (m *MockMetrics) IncRestoreOperations(op string, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Operations[op+"/"+result]++
}

func (m *MockMetrics) SetRestoresInFlight(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InFlight = append(m.InFlight, count)
}

func (m *MockMetrics) JobCount(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Jobs[status]
}

// MockStore is an in-memory interfaces.StoreInterface with optional
// error injection.
type MockStore struct {
	mu        sync.Mutex
	Snapshots map[string]*models.Snapshot
	PutErr    error
	GetErr    error
	ListErr   error
	PutCalls  int
}

func NewMockStore() *MockStore {
	return &MockStore{Snapshots: make(map[string]*models.Snapshot)}
}

func storeKey(owner, id string) string { return owner + "/" + id }

func (m *MockStore) Put(_ context.Context, s *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutErr != nil {
		return m.PutErr
	}
	key := storeKey(s.OwnerScopeID, s.ID)
	if _, ok := m.Snapshots[key]; ok {
		return interfaces.ErrExists
	}
	m.Snapshots[key] = s
	return nil
}

func (m *MockStore) Get(_ context.Context, owner, id string) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	s, ok := m.Snapshots[storeKey(owner, id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", interfaces.ErrNotFound, owner, id)
	}
	return s, nil
}

func (m *MockStore) List(_ context.Context, owner string) ([]models.SnapshotSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]models.SnapshotSummary, 0)
	for _, s := range m.Snapshots {
		if s.OwnerScopeID == owner {
			out = append(out, s.Summary())
		}
	}
	return out, nil
}

func (m *MockStore) Delete(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := storeKey(owner, id)
	if _, ok := m.Snapshots[key]; !ok {
		return interfaces.ErrNotFound
	}
	delete(m.Snapshots, key)
	return nil
}
