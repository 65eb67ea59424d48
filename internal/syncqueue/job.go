package syncqueue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// State of a queued job.
type State string

const (
	StatePending State = "pending"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// ErrJobNotFound is returned when no job exists for a key.
var ErrJobNotFound = errors.New("sync job not found")

// Job is one unit of best-effort work. Key identifies the logical operation;
// enqueuing the same key again replaces the previous job.
type Job struct {
	Key       string    `json:"key" gorm:"column:job_key;primaryKey;type:varchar(191)"`
	ID        string    `json:"id" gorm:"type:varchar(36)"`
	Kind      string    `json:"kind" gorm:"index;type:varchar(64)"`
	Payload   []byte    `json:"payload"`
	State     State     `json:"state" gorm:"index;type:varchar(16)"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Job) TableName() string { return "sync_jobs" }

// Store persists jobs so pending work survives restarts.
type Store interface {
	Put(ctx context.Context, job Job) error
	// PutIfCurrent records the outcome of job only while it is still the
	// job stored under its key. It reports whether the write happened.
	PutIfCurrent(ctx context.Context, job Job) (bool, error)
	Get(ctx context.Context, key string) (Job, error)
	Pending(ctx context.Context) ([]Job, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	jobs map[string]Job
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (m *MemoryStore) Put(_ context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs[job.Key] = job
	return nil
}

func (m *MemoryStore) PutIfCurrent(_ context.Context, job Job) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.jobs[job.Key]
	if !ok || current.ID != job.ID {
		return false, nil
	}
	m.jobs[job.Key] = job
	return true, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[key]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job, nil
}

func (m *MemoryStore) Pending(_ context.Context) ([]Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Job, 0)
	for _, job := range m.jobs {
		if job.State == StatePending {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
