// Package status tracks in-flight report-generation requests for client
// polling. Entries live only in this process: a restart forgets every
// pending request, which is fine because the durable truth is the lead's
// reportStatus field and the report document itself.
package status

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateFailed     = "failed"
)

// DefaultTTL is how long a terminal entry survives before eviction.
const DefaultTTL = time.Hour

// RequestStatus is the ephemeral progress record of one generation
// request, keyed by the request id handed back to the client.
type RequestStatus struct {
	Status      string     `json:"status"`
	LeadID      string     `json:"leadId"`
	StartTime   time.Time  `json:"startTime"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ReportURL   string     `json:"reportUrl,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func terminal(state string) bool {
	return state == StateCompleted || state == StateFailed
}

type Store struct {
	mu      sync.Mutex
	entries map[string]*RequestStatus
	timers  map[string]*time.Timer
	ttl     time.Duration
	logger  *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	return NewStoreWithTTL(logger, DefaultTTL)
}

func NewStoreWithTTL(logger *zap.Logger, ttl time.Duration) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		entries: make(map[string]*RequestStatus),
		timers:  make(map[string]*time.Timer),
		ttl:     ttl,
		logger:  logger,
	}
}

// Set stores or overwrites the record. Terminal records are scheduled
// for eviction after the store's TTL.
func (s *Store) Set(id string, st RequestStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := st
	s.entries[id] = &cp
	s.rescheduleLocked(id, cp.Status)
}

// Get returns the record and whether it exists. A miss means "unknown or
// expired", never an error.
func (s *Store) Get(id string) (RequestStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.entries[id]
	if !ok {
		return RequestStatus{}, false
	}
	return *st, true
}

// Update merges changes into an existing record via the mutate callback.
// Updating a missing record is a no-op: the entry may simply have
// expired while the driver was still running.
func (s *Store) Update(id string, mutate func(*RequestStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.entries[id]
	if !ok {
		s.logger.Debug("status update for unknown request", zap.String("requestId", id))
		return
	}
	mutate(st)
	s.rescheduleLocked(id, st.Status)
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// ListAll snapshots every entry. Debug introspection only.
func (s *Store) ListAll() map[string]RequestStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]RequestStatus, len(s.entries))
	for id, st := range s.entries {
		out[id] = *st
	}
	return out
}

func (s *Store) rescheduleLocked(id, state string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	if !terminal(state) {
		return
	}
	s.timers[id] = time.AfterFunc(s.ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.removeLocked(id)
	})
}

func (s *Store) removeLocked(id string) {
	delete(s.entries, id)
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}
