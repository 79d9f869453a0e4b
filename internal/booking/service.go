package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// Actor is the authenticated caller of a reservation operation.  Staff
// may read and act on every reservation; customers only on their own.
type Actor struct {
	UserID uint64
	Staff  bool
}

// Deps bundles the collaborators of a Service.
type Deps struct {
	Reservations ReservationStore
	Tables       TableStore
	Users        UserLookup
	Scheduler    Scheduler
	Notifier     Notifier
	Locker       Locker
	Clock        Clock
	Location     *time.Location
	SiteURL      string
}

type taskHandler func(ctx context.Context, t Task) error

// Service owns the reservation lifecycle: creation, rescheduling,
// confirmation, cancellation and the deferred reminder and auto-cancel
// tasks.
type Service struct {
	reservations ReservationStore
	tables       TableStore
	users        UserLookup
	scheduler    Scheduler
	notifier     Notifier
	locker       Locker
	clock        Clock
	loc          *time.Location
	siteURL      string
	handlers     map[TaskKind]taskHandler
}

// NewService wires a Service.  Clock and Location default to the system
// clock and UTC.
func NewService(d Deps) *Service {
	s := &Service{
		reservations: d.Reservations,
		tables:       d.Tables,
		users:        d.Users,
		scheduler:    d.Scheduler,
		notifier:     d.Notifier,
		locker:       d.Locker,
		clock:        d.Clock,
		loc:          d.Location,
		siteURL:      d.SiteURL,
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	s.handlers = map[TaskKind]taskHandler{
		TaskReminder:   s.sendReminder,
		TaskAutoCancel: s.autoCancel,
	}
	return s
}

func userKey(id uint64) string { return fmt.Sprintf("user:%d", id) }

func tableKey(id uint64, date string) string { return fmt.Sprintf("table:%d:%s", id, date) }

// lock acquires keys in order and returns a release function that is
// safe to call more than once.
func (s *Service) lock(ctx context.Context, keys ...string) (func(), error) {
	var releases []func()
	var once sync.Once
	release := func() {
		once.Do(func() {
			for i := len(releases) - 1; i >= 0; i-- {
				releases[i]()
			}
		})
	}
	for _, k := range keys {
		unlock, err := s.locker.Lock(ctx, k)
		if err != nil {
			release()
			return nil, fmt.Errorf("lock %s: %w", k, err)
		}
		releases = append(releases, unlock)
	}
	return release, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Create validates and stores a new pending reservation, schedules its
// reminder and auto-cancel tasks and sends the booking email.
// Scheduling and delivery failures are logged and do not fail the call.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	w, err := checkFields(req, s.loc)
	if err != nil {
		return nil, err
	}
	table, err := s.tables.GetByID(ctx, req.TableID)
	if err != nil {
		return nil, notFound(err)
	}

	unlock, err := s.lock(ctx, userKey(req.UserID), tableKey(req.TableID, req.Date))
	if err != nil {
		return nil, err
	}
	defer unlock()

	active, err := s.reservations.CountActiveByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	existing, err := s.reservations.ListActiveByTableDate(ctx, req.TableID, req.Date)
	if err != nil {
		return nil, err
	}
	if err := ValidateCreate(req, active, existing, s.loc); err != nil {
		return nil, err
	}

	r := &model.Reservation{
		UserID:            req.UserID,
		TableID:           req.TableID,
		TableNumber:       table.Number,
		Date:              req.Date,
		Time:              w.Start.Format(model.TimeLayout),
		Duration:          req.Duration,
		Status:            model.ReservationPending,
		ConfirmationToken: uuid.NewString(),
	}
	if err := s.reservations.Create(ctx, r); err != nil {
		return nil, err
	}
	unlock()

	s.scheduleTasks(ctx, r, w.Start)

	if u := s.recipient(ctx, r.UserID); u != nil {
		s.deliver(ctx, bookingEmail(u, r, ConfirmLink(s.siteURL, r.ConfirmationToken)))
	}
	return r, nil
}

// Get returns a reservation visible to actor.
func (s *Service) Get(ctx context.Context, actor Actor, id uint64) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !actor.Staff && r.UserID != actor.UserID {
		return nil, ErrNotFound
	}
	return r, nil
}

// List returns the reservations visible to actor that match f.
func (s *Service) List(ctx context.Context, actor Actor, f model.ReservationFilter) ([]model.Reservation, error) {
	if !actor.Staff {
		f.UserID = actor.UserID
	}
	return s.reservations.List(ctx, f)
}

// Update changes the date, time or duration of a reservation.  When the
// start moves, the old tasks are withdrawn and a new pair is scheduled.
func (s *Service) Update(ctx context.Context, actor Actor, id uint64, upd UpdateRequest) (*model.Reservation, error) {
	cur, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := ValidateUpdate(*cur, upd.Merge(*cur), now, nil, s.loc); err != nil {
		return nil, err
	}

	merged := upd.Merge(*cur)
	unlock, err := s.lock(ctx, tableKey(merged.TableID, merged.Date))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Reload under the lock; a concurrent cancel or confirm may have landed.
	cur, err = s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	merged = upd.Merge(*cur)
	existing, err := s.reservations.ListActiveByTableDate(ctx, merged.TableID, merged.Date)
	if err != nil {
		return nil, err
	}
	if err := ValidateUpdate(*cur, merged, now, existing, s.loc); err != nil {
		return nil, err
	}
	newStart, _ := StartOf(merged.Date, merged.Time, s.loc)
	merged.Time = newStart.Format(model.TimeLayout)
	ok, err := s.reservations.UpdateSchedule(ctx, id, merged.Date, merged.Time, merged.Duration)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Cancelled between the reload and the write.
		return nil, ErrModifyCancelled
	}
	unlock()

	oldStart, _ := StartOf(cur.Date, cur.Time, s.loc)
	if !oldStart.Equal(newStart) {
		s.cancelTasks(ctx, cur.ReminderTaskID, cur.AutoCancelTaskID)
		merged.ReminderTaskID, merged.AutoCancelTaskID = "", ""
		s.scheduleTasks(ctx, &merged, newStart)
	}
	return &merged, nil
}

// Cancel moves a pending or confirmed reservation to cancelled and
// withdraws its tasks.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uint64) (*model.Reservation, error) {
	cur, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateCancel(*cur, s.clock.Now(), s.loc); err != nil {
		return nil, err
	}
	ok, err := s.reservations.TransitionStatus(ctx, id, model.ActiveStatuses, model.ReservationCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyCancelled
	}
	s.cancelTasks(ctx, cur.ReminderTaskID, cur.AutoCancelTaskID)
	cur.Status = model.ReservationCancelled
	return cur, nil
}

// Confirm exchanges a confirmation token for a pending to confirmed
// transition.  The token is the only credential.
func (s *Service) Confirm(ctx context.Context, token string) (*model.Reservation, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	r, err := s.reservations.GetByToken(ctx, token)
	if err != nil {
		return nil, notFound(err)
	}
	if r.Status != model.ReservationPending {
		return nil, ErrInvalidState
	}
	ok, err := s.reservations.TransitionStatus(ctx, r.ID, []model.ReservationStatus{model.ReservationPending}, model.ReservationConfirmed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}
	s.cancelTasks(ctx, r.AutoCancelTaskID)
	r.Status = model.ReservationConfirmed
	return r, nil
}

// RunTask executes a fired deferred task.  A missing or stale
// reservation is logged and ignored; panics are recovered.
func (s *Service) RunTask(ctx context.Context, t Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("booking: task %s for reservation %d panicked: %v", t.Kind, t.ReservationID, p)
			err = nil
		}
	}()
	h, ok := s.handlers[t.Kind]
	if !ok {
		log.Printf("booking: unknown task kind %q for reservation %d", t.Kind, t.ReservationID)
		return nil
	}
	return h(ctx, t)
}

// loadForTask fetches the reservation a task refers to.  It returns nil
// when the task should do nothing.
func (s *Service) loadForTask(ctx context.Context, t Task) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, t.ReservationID)
	if errors.Is(err, sql.ErrNoRows) {
		log.Printf("booking: %s task: reservation %d not found", t.Kind, t.ReservationID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cur := handleOf(r, t.Kind); t.Handle != "" && cur != "" && cur != t.Handle {
		log.Printf("booking: %s task %s for reservation %d was superseded by %s", t.Kind, t.Handle, t.ReservationID, cur)
		return nil, nil
	}
	if !t.StartsAt.IsZero() {
		start, err := StartOf(r.Date, r.Time, s.loc)
		if err != nil || !start.Equal(t.StartsAt) {
			log.Printf("booking: %s task for reservation %d is stale", t.Kind, t.ReservationID)
			return nil, nil
		}
	}
	return r, nil
}

// handleOf returns the handle recorded on r for tasks of kind.  It is
// empty until the handles are stored.
func handleOf(r *model.Reservation, kind TaskKind) string {
	switch kind {
	case TaskReminder:
		return r.ReminderTaskID
	case TaskAutoCancel:
		return r.AutoCancelTaskID
	}
	return ""
}

func (s *Service) autoCancel(ctx context.Context, t Task) error {
	r, err := s.loadForTask(ctx, t)
	if err != nil || r == nil {
		return err
	}
	if r.Status != model.ReservationPending {
		return nil
	}
	ok, err := s.reservations.TransitionStatus(ctx, r.ID, []model.ReservationStatus{model.ReservationPending}, model.ReservationCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	r.Status = model.ReservationCancelled
	log.Printf("booking: reservation %d auto-cancelled", r.ID)
	if u := s.recipient(ctx, r.UserID); u != nil {
		s.deliver(ctx, autoCancelEmail(u, r))
	}
	return nil
}

func (s *Service) sendReminder(ctx context.Context, t Task) error {
	r, err := s.loadForTask(ctx, t)
	if err != nil || r == nil {
		return err
	}
	if !r.Status.Active() {
		return nil
	}
	if u := s.recipient(ctx, r.UserID); u != nil {
		s.deliver(ctx, reminderEmail(u, r, ConfirmLink(s.siteURL, r.ConfirmationToken)))
	}
	return nil
}

// scheduleTasks registers the deferred tasks for r and stores their
// handles on the row, clearing handles of tasks it did not schedule.
func (s *Service) scheduleTasks(ctx context.Context, r *model.Reservation, start time.Time) {
	tasks := plannedTasks(r.ID, start, s.clock.Now(), r.Status == model.ReservationConfirmed)
	for _, t := range tasks {
		handle, err := s.scheduler.Schedule(ctx, t)
		if err != nil {
			log.Printf("booking: schedule %s for reservation %d failed: %v", t.Kind, r.ID, err)
			continue
		}
		switch t.Kind {
		case TaskReminder:
			r.ReminderTaskID = handle
		case TaskAutoCancel:
			r.AutoCancelTaskID = handle
		}
	}
	if err := s.reservations.SetTaskHandles(ctx, r.ID, r.ReminderTaskID, r.AutoCancelTaskID); err != nil {
		log.Printf("booking: store task handles for reservation %d: %v", r.ID, err)
	}
}

func (s *Service) cancelTasks(ctx context.Context, handles ...string) {
	for _, h := range handles {
		if h == "" {
			continue
		}
		if err := s.scheduler.Cancel(ctx, h); err != nil {
			log.Printf("booking: cancel task %s: %v", h, err)
		}
	}
}

func (s *Service) recipient(ctx context.Context, userID uint64) *model.User {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("booking: look up user %d for email: %v", userID, err)
		return nil
	}
	return u
}

func (s *Service) deliver(ctx context.Context, e Email) {
	if err := s.notifier.Send(ctx, e); err != nil {
		log.Printf("booking: deliver %q to %s failed: %v", e.Subject, e.To, err)
	}
}
