package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/lock"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// memDB backs the in-memory stores used by the tests.
type memDB struct {
	mu           sync.Mutex
	nextID       uint64
	reservations map[uint64]model.Reservation
	tables       map[uint64]model.Table
	users        map[uint64]model.User

	// beforeReschedule, when set, runs ahead of every UpdateSchedule
	// write without the lock held.
	beforeReschedule func(id uint64)
}

func newMemDB() *memDB {
	return &memDB{
		reservations: make(map[uint64]model.Reservation),
		tables:       make(map[uint64]model.Table),
		users:        make(map[uint64]model.User),
	}
}

func (db *memDB) id() uint64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) addTable(number, seats uint32) model.Table {
	db.mu.Lock()
	defer db.mu.Unlock()
	t := model.Table{ID: db.id(), Number: number, Seats: seats, Type: model.TableStandard, Status: model.TableAvailable}
	db.tables[t.ID] = t
	return t
}

func (db *memDB) addUser(email string) model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := model.User{ID: db.id(), FirstName: "Sam", Email: email, Role: model.RoleCustomer, IsVerified: true}
	db.users[u.ID] = u
	return u
}

func (db *memDB) reservation(id uint64) model.Reservation {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.reservations[id]
}

type resStore struct{ *memDB }

func (s resStore) Create(_ context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.CreatedAt = time.Now()
	if t, ok := s.tables[r.TableID]; ok {
		r.TableNumber = t.Number
	}
	s.reservations[r.ID] = *r
	return nil
}

func (s resStore) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (s resStore) GetByToken(_ context.Context, token string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.ConfirmationToken == token {
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s resStore) List(_ context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if f.UserID != 0 && r.UserID != f.UserID {
			continue
		}
		if f.TableID != 0 && r.TableID != f.TableID {
			continue
		}
		if f.Date != "" && r.Date != f.Date {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s resStore) ListActiveByTableDate(_ context.Context, tableID uint64, date string) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.TableID == tableID && r.Date == date && r.Status.Active() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s resStore) CountActiveByUser(_ context.Context, userID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.UserID == userID && r.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (s resStore) UpdateSchedule(_ context.Context, id uint64, date, clock string, duration int) (bool, error) {
	if s.beforeReschedule != nil {
		s.beforeReschedule(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || !r.Status.Active() {
		return false, nil
	}
	r.Date, r.Time, r.Duration = date, clock, duration
	s.reservations[id] = r
	return true, nil
}

func (s resStore) SetTaskHandles(_ context.Context, id uint64, reminder, autoCancel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.ReminderTaskID, r.AutoCancelTaskID = reminder, autoCancel
	s.reservations[id] = r
	return nil
}

func (s resStore) TransitionStatus(_ context.Context, id uint64, from []model.ReservationStatus, to model.ReservationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if r.Status == st {
			r.Status = to
			s.reservations[id] = r
			return true, nil
		}
	}
	return false, nil
}

type tableStore struct{ *memDB }

func (s tableStore) Create(_ context.Context, t *model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.tables[t.ID] = *t
	return nil
}

func (s tableStore) GetByID(_ context.Context, id uint64) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (s tableStore) List(_ context.Context, f model.TableFilter) ([]model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Table
	for _, t := range s.tables {
		if (f.Type == "" || t.Type == f.Type) && (f.Seats == 0 || t.Seats == f.Seats) && (f.Status == "" || t.Status == f.Status) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s tableStore) Update(_ context.Context, t *model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = *t
	return nil
}

func (s tableStore) UpdateStatus(_ context.Context, id uint64, status model.TableStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tables[id]
	t.Status = status
	s.tables[id] = t
	return nil
}

func (s tableStore) DeleteIfIdle(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[id]; !ok {
		return false, nil
	}
	for _, r := range s.reservations {
		if r.TableID == id && r.Status.Active() {
			return false, nil
		}
	}
	delete(s.tables, id)
	return true, nil
}

type userStore struct{ *memDB }

func (s userStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	n         int
	fail      bool
	scheduled map[string]Task
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[string]Task)}
}

func (f *fakeScheduler) Schedule(_ context.Context, t Task) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("broker unavailable")
	}
	f.n++
	h := fmt.Sprintf("task-%d", f.n)
	t.Handle = h
	f.scheduled[h] = t
	return h, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, handle)
	f.cancelled = append(f.cancelled, handle)
	return nil
}

func (f *fakeScheduler) pending() []Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Task, 0, len(f.scheduled))
	for _, t := range f.scheduled {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.Before(out[j].RunAt) })
	return out
}

type fakeNotifier struct {
	mu   sync.Mutex
	fail bool
	sent []Email
}

func (f *fakeNotifier) Send(_ context.Context, e Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeNotifier) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, e := range f.sent {
		out[i] = e.Subject
	}
	return out
}

type harness struct {
	svc   *Service
	db    *memDB
	sched *fakeScheduler
	mail  *fakeNotifier
	clock *fakeClock
}

func newHarness(now time.Time) *harness {
	db := newMemDB()
	h := &harness{
		db:    db,
		sched: newFakeScheduler(),
		mail:  &fakeNotifier{},
		clock: &fakeClock{now: now},
	}
	h.svc = NewService(Deps{
		Reservations: resStore{db},
		Tables:       tableStore{db},
		Users:        userStore{db},
		Scheduler:    h.sched,
		Notifier:     h.mail,
		Locker:       lock.NewMemory(),
		Clock:        h.clock,
		Location:     time.UTC,
		SiteURL:      "http://localhost:8080",
	})
	return h
}
