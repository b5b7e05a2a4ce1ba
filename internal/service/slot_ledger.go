package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SlotLedger keeps the remaining-capacity counter for every slot. Reserve and
// Release are conditional atomic operations scoped to one slot; they never
// touch other slots or block on them.
type SlotLedger interface {
	// Reserve takes one unit of capacity; entity.ErrSlotFull when exhausted.
	Reserve(ctx context.Context, schedule *entity.Schedule, slotID string) error
	// Release returns one unit. Over-release indicates a ledger desync; it is
	// clamped and logged, never surfaced, because the caller's action was valid.
	Release(ctx context.Context, scheduleID uuid.UUID, slotID string) error
	// SyncSchedule rebuilds the schedule's counters from confirmed appointments.
	SyncSchedule(ctx context.Context, schedule *entity.Schedule) error
	// DeleteSchedule drops all counters belonging to a schedule.
	DeleteSchedule(ctx context.Context, schedule *entity.Schedule) error
	// SyncOnStartup rebuilds counters for all upcoming schedules. Call before
	// accepting traffic.
	SyncOnStartup(ctx context.Context) error
}

const (
	remainingKeyPrefix = "slot:remaining:"
	capacityKeyPrefix  = "slot:capacity:"
)

// reserveScript decrements the remaining counter only while it is positive.
// Runs atomically inside Redis, so two concurrent reservations on the last
// unit cannot both succeed.
// Returns: remaining after decrement, -1 when full, -2 when untracked.
var reserveScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return -2
	end
	local remaining = redis.call('DECR', KEYS[1])
	if remaining < 0 then
		redis.call('INCR', KEYS[1])
		return -1
	end
	return remaining
`)

// releaseScript increments the remaining counter, clamped at capacity.
// Returns: remaining after increment, -1 when clamped (desync), -2 when untracked.
var releaseScript = redis.NewScript(`
	local cap = redis.call('GET', KEYS[2])
	if not cap then
		return -2
	end
	local remaining = redis.call('INCR', KEYS[1])
	if remaining > tonumber(cap) then
		redis.call('SET', KEYS[1], cap)
		return -1
	end
	return remaining
`)

type redisSlotLedger struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger

	scheduleRepo    repository.ScheduleRepository
	appointmentRepo repository.AppointmentRepository

	// Per-schedule mutex so concurrent syncs of the same schedule do not
	// interleave their pipelines.
	syncMu sync.Map // map[uuid.UUID]*sync.Mutex
}

func NewRedisSlotLedger(
	db *gorm.DB,
	redisClient *redis.Client,
	log *logrus.Logger,
	scheduleRepo repository.ScheduleRepository,
	appointmentRepo repository.AppointmentRepository,
) SlotLedger {
	return &redisSlotLedger{
		db:              db,
		redisClient:     redisClient,
		log:             log,
		scheduleRepo:    scheduleRepo,
		appointmentRepo: appointmentRepo,
	}
}

func remainingKey(scheduleID uuid.UUID, slotID string) string {
	return fmt.Sprintf("%s%s:%s", remainingKeyPrefix, scheduleID.String(), slotID)
}

func capacityKey(scheduleID uuid.UUID, slotID string) string {
	return fmt.Sprintf("%s%s:%s", capacityKeyPrefix, scheduleID.String(), slotID)
}

func (s *redisSlotLedger) Reserve(ctx context.Context, schedule *entity.Schedule, slotID string) error {
	key := remainingKey(schedule.ID, slotID)

	result, err := reserveScript.Run(ctx, s.redisClient, []string{key}).Int()
	if err != nil {
		return fmt.Errorf("reserve slot %s of schedule %s: %w", slotID, schedule.ID, err)
	}

	if result == -2 {
		// Counter expired or Redis was flushed; rebuild from the
		// appointment rows and retry once.
		if err := s.SyncSchedule(ctx, schedule); err != nil {
			return err
		}
		result, err = reserveScript.Run(ctx, s.redisClient, []string{key}).Int()
		if err != nil {
			return fmt.Errorf("reserve slot %s of schedule %s: %w", slotID, schedule.ID, err)
		}
		if result == -2 {
			return entity.ErrSlotNotFound
		}
	}

	if result == -1 {
		return entity.ErrSlotFull
	}

	s.log.Debugf("Reserved slot %s of schedule %s, remaining=%d", slotID, schedule.ID, result)
	return nil
}

func (s *redisSlotLedger) Release(ctx context.Context, scheduleID uuid.UUID, slotID string) error {
	keys := []string{remainingKey(scheduleID, slotID), capacityKey(scheduleID, slotID)}

	result, err := releaseScript.Run(ctx, s.redisClient, keys).Int()
	if err != nil {
		return fmt.Errorf("release slot %s of schedule %s: %w", slotID, scheduleID, err)
	}

	switch result {
	case -1:
		s.log.Warnf("Slot ledger desync: release of slot %s of schedule %s exceeded capacity, clamped", slotID, scheduleID)
	case -2:
		s.log.Debugf("Release of untracked slot %s of schedule %s skipped", slotID, scheduleID)
	default:
		s.log.Debugf("Released slot %s of schedule %s, remaining=%d", slotID, scheduleID, result)
	}
	return nil
}

func (s *redisSlotLedger) SyncSchedule(ctx context.Context, schedule *entity.Schedule) error {
	mu := s.scheduleMutex(schedule.ID)
	mu.Lock()
	defer mu.Unlock()

	counts, err := s.appointmentRepo.ConfirmedCountsBySlot(ctx, s.db, schedule.ID)
	if err != nil {
		return fmt.Errorf("query confirmed counts for schedule %s: %w", schedule.ID, err)
	}
	confirmed := make(map[string]int, len(counts))
	for _, c := range counts {
		confirmed[c.SlotID] = c.Confirmed
	}

	ttl := s.calculateTTL(schedule.ScheduleDate)
	pipe := s.redisClient.TxPipeline()
	for _, slot := range schedule.Slots {
		remaining := slot.Capacity - confirmed[slot.ID]
		if remaining < 0 {
			s.log.Warnf("Slot ledger desync: slot %s of schedule %s has %d confirmed appointments but capacity %d",
				slot.ID, schedule.ID, confirmed[slot.ID], slot.Capacity)
			remaining = 0
		}
		pipe.Set(ctx, remainingKey(schedule.ID, slot.ID), remaining, ttl)
		pipe.Set(ctx, capacityKey(schedule.ID, slot.ID), slot.Capacity, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("sync ledger for schedule %s: %w", schedule.ID, err)
	}

	s.log.Debugf("Synced ledger for schedule %s: %d slots, TTL=%v", schedule.ID, len(schedule.Slots), ttl)
	return nil
}

func (s *redisSlotLedger) DeleteSchedule(ctx context.Context, schedule *entity.Schedule) error {
	mu := s.scheduleMutex(schedule.ID)
	mu.Lock()
	defer func() {
		mu.Unlock()
		s.syncMu.Delete(schedule.ID)
	}()

	keys := make([]string, 0, len(schedule.Slots)*2)
	for _, slot := range schedule.Slots {
		keys = append(keys, remainingKey(schedule.ID, slot.ID), capacityKey(schedule.ID, slot.ID))
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete ledger keys for schedule %s: %w", schedule.ID, err)
	}

	s.log.Debugf("Deleted ledger keys for schedule %s", schedule.ID)
	return nil
}

func (s *redisSlotLedger) SyncOnStartup(ctx context.Context) error {
	s.log.Info("Rebuilding slot ledger from database...")
	startTime := time.Now()

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	schedules, err := s.scheduleRepo.FindFromDate(ctx, s.db, today)
	if err != nil {
		return fmt.Errorf("query upcoming schedules: %w", err)
	}

	for i := range schedules {
		if err := s.SyncSchedule(ctx, &schedules[i]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.log.Infof("Slot ledger rebuilt: %d schedules in %v", len(schedules), time.Since(startTime))
	return nil
}

func (s *redisSlotLedger) scheduleMutex(scheduleID uuid.UUID) *sync.Mutex {
	mu, _ := s.syncMu.LoadOrStore(scheduleID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// calculateTTL returns a TTL expiring 24 hours after the schedule date.
func (s *redisSlotLedger) calculateTTL(scheduleDate time.Time) time.Duration {
	expireAt := scheduleDate.AddDate(0, 0, 1)
	ttl := time.Until(expireAt)

	if ttl <= 0 {
		// Past date, short TTL for cleanup
		return 1 * time.Minute
	}

	return ttl
}
