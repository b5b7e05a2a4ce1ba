package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"clinic-management-api/internal/domain/entity"
	domainRepo "clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// passthroughTxManager runs the function without a real transaction. Used
// where no failure path is exercised, so nothing needs rolling back.
type passthroughTxManager struct{}

func (passthroughTxManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// snapshotTxManager emulates transactional rollback for the in-memory fakes:
// it captures restore closures before running the function and applies them
// when the function errors.
type snapshotTxManager struct {
	snapshots []func() func()
}

func (m *snapshotTxManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	restores := make([]func(), len(m.snapshots))
	for i, snap := range m.snapshots {
		restores[i] = snap()
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

var _ domainRepo.TxManager = (*snapshotTxManager)(nil)

type fakeAuditService struct {
	mu      sync.Mutex
	actions []string
}

func (s *fakeAuditService) record(action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return nil
}

func (s *fakeAuditService) LogCreate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action, entityName, entityID string, newValue interface{}) error {
	return s.record(action)
}

func (s *fakeAuditService) LogUpdate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action, entityName, entityID string, oldValue, newValue interface{}) error {
	return s.record(action)
}

func (s *fakeAuditService) LogDelete(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action, entityName, entityID string, oldValue interface{}) error {
	return s.record(action)
}

var _ service.AuditService = (*fakeAuditService)(nil)

// fakeSlotLocker serializes callers per (schedule, slot) with an in-process
// mutex, mirroring the mutual exclusion the Redis lock provides.
type fakeSlotLocker struct {
	locks sync.Map // string -> *sync.Mutex
	err   error    // when set, every acquire fails with it
}

func (l *fakeSlotLocker) WithSlotLock(ctx context.Context, scheduleID uuid.UUID, slotID string, fn func(ctx context.Context) error) error {
	if l.err != nil {
		return l.err
	}
	key := scheduleID.String() + ":" + slotID
	mu, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()
	return fn(ctx)
}

// fakeSlotLedger keeps remaining-capacity counters in a map, seeded lazily
// from the schedule the way the Redis ledger resyncs untracked slots.
type fakeSlotLedger struct {
	mu        sync.Mutex
	remaining map[string]int
	capacity  map[string]int
	synced    []uuid.UUID
	deleted   []uuid.UUID
}

func newFakeSlotLedger() *fakeSlotLedger {
	return &fakeSlotLedger{
		remaining: make(map[string]int),
		capacity:  make(map[string]int),
	}
}

func ledgerKey(scheduleID uuid.UUID, slotID string) string {
	return scheduleID.String() + ":" + slotID
}

func (l *fakeSlotLedger) Reserve(ctx context.Context, schedule *entity.Schedule, slotID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey(schedule.ID, slotID)
	if _, ok := l.remaining[key]; !ok {
		slot, _, err := schedule.SlotByID(slotID)
		if err != nil {
			return err
		}
		l.remaining[key] = slot.Capacity - slot.BookedCount
		l.capacity[key] = slot.Capacity
	}
	if l.remaining[key] <= 0 {
		return entity.ErrSlotFull
	}
	l.remaining[key]--
	return nil
}

func (l *fakeSlotLedger) Release(ctx context.Context, scheduleID uuid.UUID, slotID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey(scheduleID, slotID)
	if capacity, ok := l.capacity[key]; ok && l.remaining[key] < capacity {
		l.remaining[key]++
	}
	return nil
}

func (l *fakeSlotLedger) SyncSchedule(ctx context.Context, schedule *entity.Schedule) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.synced = append(l.synced, schedule.ID)
	for _, slot := range schedule.Slots {
		key := ledgerKey(schedule.ID, slot.ID)
		l.remaining[key] = slot.Capacity - slot.BookedCount
		l.capacity[key] = slot.Capacity
	}
	return nil
}

func (l *fakeSlotLedger) DeleteSchedule(ctx context.Context, schedule *entity.Schedule) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.deleted = append(l.deleted, schedule.ID)
	for _, slot := range schedule.Slots {
		key := ledgerKey(schedule.ID, slot.ID)
		delete(l.remaining, key)
		delete(l.capacity, key)
	}
	return nil
}

func (l *fakeSlotLedger) SyncOnStartup(ctx context.Context) error {
	return nil
}

func (l *fakeSlotLedger) remainingFor(scheduleID uuid.UUID, slotID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining[ledgerKey(scheduleID, slotID)]
}

var _ service.SlotLedger = (*fakeSlotLedger)(nil)

type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]*entity.Schedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[uuid.UUID]*entity.Schedule)}
}

func (r *fakeScheduleRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[uuid.UUID]*entity.Schedule, len(r.schedules))
	for id, s := range r.schedules {
		saved[id] = cloneSchedule(s)
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.schedules = saved
	}
}

func cloneSchedule(s *entity.Schedule) *entity.Schedule {
	clone := *s
	clone.Slots = make(entity.SlotList, len(s.Slots))
	copy(clone.Slots, s.Slots)
	return &clone
}

func (r *fakeScheduleRepo) add(s *entity.Schedule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.schedules[s.ID] = cloneSchedule(s)
}

func (r *fakeScheduleRepo) get(id uuid.UUID) *entity.Schedule {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.schedules[id]; ok {
		return cloneSchedule(s)
	}
	return nil
}

func (r *fakeScheduleRepo) Create(ctx context.Context, db *gorm.DB, schedule *entity.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.schedules {
		if existing.DoctorID == schedule.DoctorID && existing.ScheduleDate.Equal(schedule.ScheduleDate) {
			return fmt.Errorf("duplicate key value violates unique constraint \"idx_schedules_doctor_date\"")
		}
	}
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	r.schedules[schedule.ID] = cloneSchedule(schedule)
	return nil
}

func (r *fakeScheduleRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Schedule, error) {
	return r.get(id), nil
}

func (r *fakeScheduleRepo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Schedule, error) {
	return r.get(id), nil
}

func (r *fakeScheduleRepo) FindByDoctorAndDate(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date string) (*entity.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.DoctorID == doctorID && s.DateString() == date {
			return cloneSchedule(s), nil
		}
	}
	return nil, nil
}

func (r *fakeScheduleRepo) FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.ScheduleFilter) ([]entity.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Schedule
	for _, s := range r.schedules {
		out = append(out, *cloneSchedule(s))
	}
	return out, nil
}

func (r *fakeScheduleRepo) FindFromDate(ctx context.Context, db *gorm.DB, from string) ([]entity.Schedule, error) {
	return r.FindFiltered(ctx, db, nil)
}

func (r *fakeScheduleRepo) UpdateSlots(ctx context.Context, db *gorm.DB, id uuid.UUID, slots entity.SlotList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.schedules[id]; ok {
		s.Slots = make(entity.SlotList, len(slots))
		copy(s.Slots, slots)
	}
	return nil
}

func (r *fakeScheduleRepo) Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[id]; !ok {
		return 0, nil
	}
	delete(r.schedules, id)
	return 1, nil
}

func (r *fakeScheduleRepo) IncrementSlotBooked(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID, slotID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[scheduleID]
	if !ok {
		return 0, nil
	}
	for i := range s.Slots {
		if s.Slots[i].ID == slotID && s.Slots[i].BookedCount < s.Slots[i].Capacity {
			s.Slots[i].BookedCount++
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeScheduleRepo) DecrementSlotBooked(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID, slotID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[scheduleID]
	if !ok {
		return 0, nil
	}
	for i := range s.Slots {
		if s.Slots[i].ID == slotID && s.Slots[i].BookedCount > 0 {
			s.Slots[i].BookedCount--
			return 1, nil
		}
	}
	return 0, nil
}

var _ domainRepo.ScheduleRepository = (*fakeScheduleRepo)(nil)

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*entity.Appointment
	createErr    error
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*entity.Appointment)}
}

func (r *fakeAppointmentRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[uuid.UUID]*entity.Appointment, len(r.appointments))
	for id, a := range r.appointments {
		clone := *a
		saved[id] = &clone
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.appointments = saved
	}
}

func (r *fakeAppointmentRepo) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	clone := *appointment
	r.appointments[appointment.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appointments[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if filter != nil && filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (r *fakeAppointmentRepo) CancelConfirmed(ctx context.Context, db *gorm.DB, id uuid.UUID, actor entity.CancelActor, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != entity.AppointmentStatusConfirmed {
		return 0, nil
	}
	a.Status = entity.AppointmentStatusCanceled
	a.CanceledBy = &actor
	a.CanceledAt = &at
	return 1, nil
}

func (r *fakeAppointmentRepo) TransitionConfirmed(ctx context.Context, db *gorm.DB, id uuid.UUID, target entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != entity.AppointmentStatusConfirmed {
		return 0, nil
	}
	a.Status = target
	return 1, nil
}

func (r *fakeAppointmentRepo) CountConfirmedBySchedule(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.appointments {
		if a.ScheduleID == scheduleID && a.Status == entity.AppointmentStatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (r *fakeAppointmentRepo) ConfirmedCountsBySlot(ctx context.Context, db *gorm.DB, scheduleID uuid.UUID) ([]domainRepo.SlotBookingCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, a := range r.appointments {
		if a.ScheduleID == scheduleID && a.Status == entity.AppointmentStatusConfirmed {
			counts[a.SlotID]++
		}
	}
	var out []domainRepo.SlotBookingCount
	for slotID, n := range counts {
		out = append(out, domainRepo.SlotBookingCount{ScheduleID: scheduleID, SlotID: slotID, Confirmed: n})
	}
	return out, nil
}

func (r *fakeAppointmentRepo) confirmedCount(scheduleID uuid.UUID, slotID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.appointments {
		if a.ScheduleID == scheduleID && a.SlotID == slotID && a.Status == entity.AppointmentStatusConfirmed {
			n++
		}
	}
	return n
}

var _ domainRepo.AppointmentRepository = (*fakeAppointmentRepo)(nil)

type fakePatientProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*entity.PatientProfile
}

func newFakePatientProfileRepo() *fakePatientProfileRepo {
	return &fakePatientProfileRepo{profiles: make(map[uuid.UUID]*entity.PatientProfile)}
}

func (r *fakePatientProfileRepo) add(p *entity.PatientProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
}

func (r *fakePatientProfileRepo) Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	r.add(profile)
	return nil
}

func (r *fakePatientProfileRepo) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	return nil, nil
}

func (r *fakePatientProfileRepo) FindAll(ctx context.Context, db *gorm.DB, keyword string) ([]entity.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.PatientProfile
	for _, p := range r.profiles {
		if keyword == "" || strings.Contains(strings.ToLower(p.User.FullName), strings.ToLower(keyword)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

var _ domainRepo.PatientProfileRepository = (*fakePatientProfileRepo)(nil)

type fakeDoctorProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*entity.DoctorProfile
}

func newFakeDoctorProfileRepo() *fakeDoctorProfileRepo {
	return &fakeDoctorProfileRepo{profiles: make(map[uuid.UUID]*entity.DoctorProfile)}
}

func (r *fakeDoctorProfileRepo) add(p *entity.DoctorProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
}

func (r *fakeDoctorProfileRepo) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	r.add(profile)
	return nil
}

func (r *fakeDoctorProfileRepo) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	return nil, nil
}

func (r *fakeDoctorProfileRepo) FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.DoctorProfile
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeDoctorProfileRepo) FindUserIDsBySpecialty(ctx context.Context, db *gorm.DB, specialtyID int) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, p := range r.profiles {
		if p.SpecialtyID == specialtyID {
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

var _ domainRepo.DoctorProfileRepository = (*fakeDoctorProfileRepo)(nil)

type fakeFeedbackRepo struct {
	mu        sync.Mutex
	feedbacks map[uuid.UUID]*entity.Feedback // keyed by appointment ID
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{feedbacks: make(map[uuid.UUID]*entity.Feedback)}
}

func (r *fakeFeedbackRepo) Create(ctx context.Context, db *gorm.DB, feedback *entity.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.feedbacks[feedback.AppointmentID]; ok {
		return fmt.Errorf("duplicate key value violates unique constraint \"idx_feedbacks_appointment_id\"")
	}
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	r.feedbacks[feedback.AppointmentID] = feedback
	return nil
}

func (r *fakeFeedbackRepo) FindByAppointmentID(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) (*entity.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feedbacks[appointmentID]; ok {
		return f, nil
	}
	return nil, nil
}

func (r *fakeFeedbackRepo) FindFiltered(ctx context.Context, db *gorm.DB, filter *entity.FeedbackFilter) ([]entity.Feedback, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Feedback
	for _, f := range r.feedbacks {
		out = append(out, *f)
	}
	return out, int64(len(out)), nil
}

var _ domainRepo.FeedbackRepository = (*fakeFeedbackRepo)(nil)
