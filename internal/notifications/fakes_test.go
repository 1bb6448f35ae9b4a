package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu sync.Mutex

	events    []EventRow
	warehouse []WarehouseRow

	eventCheckIns     map[string]CheckIn // by assignment id
	warehouseCheckIns map[string]CheckIn // by shift id + "/" + user id

	logs   []LogEntry
	claims map[Key]uuid.UUID
	inApp  []InApp

	eventsErr    error
	warehouseErr error
	hasSentErr   map[Key]error
	eventsFrom   time.Time
	eventsTo     time.Time
	warehouseDay time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		eventCheckIns:     map[string]CheckIn{},
		warehouseCheckIns: map[string]CheckIn{},
		claims:            map[Key]uuid.UUID{},
		hasSentErr:        map[Key]error{},
	}
}

func (s *fakeStore) EventAssignments(_ context.Context, from, to time.Time) ([]EventRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventsFrom, s.eventsTo = from, to
	if s.eventsErr != nil {
		return nil, s.eventsErr
	}
	return s.events, nil
}

func (s *fakeStore) WarehouseAssignments(_ context.Context, day time.Time) ([]WarehouseRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouseDay = day
	if s.warehouseErr != nil {
		return nil, s.warehouseErr
	}
	var out []WarehouseRow
	for _, r := range s.warehouse {
		overnight := r.StartTime != nil && r.EndTime != nil && *r.EndTime <= *r.StartTime
		if r.Date.Equal(day) || (overnight && r.Date.Equal(day.AddDate(0, 0, -1))) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) HasSent(_ context.Context, k Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hasSentErr[k]; err != nil {
		return false, err
	}
	for _, l := range s.logs {
		if l.Key == k {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) EventCheckIn(_ context.Context, assignmentID string) (CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventCheckIns[assignmentID], nil
}

func (s *fakeStore) WarehouseCheckIn(_ context.Context, shiftID, userID string) (CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warehouseCheckIns[shiftID+"/"+userID], nil
}

func (s *fakeStore) Claim(_ context.Context, k Key, runID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[k]; ok {
		return false, nil
	}
	s.claims[k] = runID
	return true, nil
}

func (s *fakeStore) LogDispatch(_ context.Context, e LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, e)
	return nil
}

func (s *fakeStore) CreateInApp(_ context.Context, n InApp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inApp = append(s.inApp, n)
	return nil
}

// fakeSender records pushes and fails for configured users.
type fakeSender struct {
	mu     sync.Mutex
	pushes []Push
	failOn map[string]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{failOn: map[string]error{}}
}

func (s *fakeSender) Send(_ context.Context, p Push) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes = append(s.pushes, p)
	return s.failOn[p.UserID]
}

var errBackend = errors.New("backend unavailable")

func clock(h, m int) *time.Duration {
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
	return &d
}

func ts(t time.Time) *time.Time { return &t }
