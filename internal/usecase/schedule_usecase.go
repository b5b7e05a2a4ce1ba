package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDuplicateSchedule   = errors.New("schedule already exists for this doctor and date")
	ErrScheduleHasBookings = errors.New("schedule has confirmed appointments")
	ErrInvalidDateFormat   = errors.New("invalid date format, use YYYY-MM-DD")
)

type ScheduleUsecase interface {
	CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	UpdateSchedule(ctx context.Context, scheduleID uuid.UUID, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error)
	DeleteSchedule(ctx context.Context, scheduleID uuid.UUID) error
	GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*dto.ScheduleResponse, error)
	ListSchedules(ctx context.Context, filter *entity.ScheduleFilter) (*dto.ScheduleListResponse, error)
}

type scheduleUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	txm               repository.TxManager
	scheduleRepo      repository.ScheduleRepository
	appointmentRepo   repository.AppointmentRepository
	doctorProfileRepo repository.DoctorProfileRepository
	slotLedger        service.SlotLedger
	auditService      service.AuditService
}

func NewScheduleUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	txm repository.TxManager,
	scheduleRepo repository.ScheduleRepository,
	appointmentRepo repository.AppointmentRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	slotLedger service.SlotLedger,
	auditService service.AuditService,
) ScheduleUsecase {
	return &scheduleUsecase{
		db:                db,
		log:               log,
		txm:               txm,
		scheduleRepo:      scheduleRepo,
		appointmentRepo:   appointmentRepo,
		doctorProfileRepo: doctorProfileRepo,
		slotLedger:        slotLedger,
		auditService:      auditService,
	}
}

func (u *scheduleUsecase) CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	actorID, _ := middleware.GetUserIDFromContext(ctx)

	scheduleDate, err := time.Parse("2006-01-02", req.ScheduleDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	doctor, err := u.doctorProfileRepo.FindByUserID(ctx, u.db, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	slots, err := entity.ValidateNewSlots(slotRequestsToSlots(req.Slots))
	if err != nil {
		return nil, err
	}

	// Fast duplicate check; the unique index is the real guard against the
	// create/create race.
	existing, err := u.scheduleRepo.FindByDoctorAndDate(ctx, u.db, req.DoctorID, req.ScheduleDate)
	if err != nil {
		u.log.Warnf("Failed to check existing schedule: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateSchedule
	}

	schedule := &entity.Schedule{
		DoctorID:     req.DoctorID,
		ScheduleDate: scheduleDate,
		Slots:        slots,
	}

	err = u.txm.Do(ctx, func(tx *gorm.DB) error {
		if err := u.scheduleRepo.Create(ctx, tx, schedule); err != nil {
			if isDuplicateKeyError(err, "doctor_date") {
				return ErrDuplicateSchedule
			}
			if isForeignKeyError(err, "doctor") {
				return ErrDoctorNotFound
			}
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &actorID, entity.AuditActionScheduleCreate,
			"schedule", schedule.ID.String(), map[string]interface{}{
				"doctor_id": req.DoctorID.String(),
				"date":      req.ScheduleDate,
				"slots":     len(slots),
			})
	})
	if err != nil {
		u.log.Warnf("Failed to create schedule: %+v", err)
		return nil, err
	}

	if err := u.slotLedger.SyncSchedule(ctx, schedule); err != nil {
		// Non-fatal: Reserve rebuilds missing counters on first use.
		u.log.Warnf("Failed to sync ledger for new schedule %s: %+v", schedule.ID, err)
	}

	u.log.Infof("Schedule created: id=%s, doctor=%s, date=%s", schedule.ID, req.DoctorID, req.ScheduleDate)
	return converter.ScheduleToResponse(schedule), nil
}

// UpdateSchedule replaces the slot sequence. The schedule row is locked for
// the transaction so the validation against live booked counts cannot race a
// concurrent booking's increment.
func (u *scheduleUsecase) UpdateSchedule(ctx context.Context, scheduleID uuid.UUID, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error) {
	actorID, _ := middleware.GetUserIDFromContext(ctx)

	var updated *entity.Schedule
	err := u.txm.Do(ctx, func(tx *gorm.DB) error {
		schedule, err := u.scheduleRepo.FindByIDForUpdate(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if schedule == nil {
			return ErrScheduleNotFound
		}

		merged, err := schedule.ApplySlotUpdate(slotRequestsToSlots(req.Slots))
		if err != nil {
			return err
		}

		if err := u.scheduleRepo.UpdateSlots(ctx, tx, scheduleID, merged); err != nil {
			return err
		}

		oldCount := len(schedule.Slots)
		schedule.Slots = merged
		updated = schedule

		return u.auditService.LogUpdate(ctx, tx, &actorID, entity.AuditActionScheduleUpdate,
			"schedule", scheduleID.String(),
			map[string]interface{}{"slots": oldCount},
			map[string]interface{}{"slots": len(merged)})
	})
	if err != nil {
		return nil, err
	}

	if err := u.slotLedger.SyncSchedule(ctx, updated); err != nil {
		u.log.Warnf("Failed to sync ledger after slot update for schedule %s: %+v", scheduleID, err)
	}

	u.log.Infof("Schedule updated: id=%s, slots=%d", scheduleID, len(updated.Slots))
	return converter.ScheduleToResponse(updated), nil
}

// DeleteSchedule removes a schedule only when no confirmed appointment
// references it. The guard check and the delete run in one transaction with
// the row locked, so a booking committed in between cannot be orphaned.
func (u *scheduleUsecase) DeleteSchedule(ctx context.Context, scheduleID uuid.UUID) error {
	actorID, _ := middleware.GetUserIDFromContext(ctx)

	var deleted *entity.Schedule
	err := u.txm.Do(ctx, func(tx *gorm.DB) error {
		schedule, err := u.scheduleRepo.FindByIDForUpdate(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if schedule == nil {
			return ErrScheduleNotFound
		}

		confirmed, err := u.appointmentRepo.CountConfirmedBySchedule(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if confirmed > 0 {
			return ErrScheduleHasBookings
		}

		if _, err := u.scheduleRepo.Delete(ctx, tx, scheduleID); err != nil {
			return err
		}
		deleted = schedule

		return u.auditService.LogDelete(ctx, tx, &actorID, entity.AuditActionScheduleDelete,
			"schedule", scheduleID.String(), map[string]interface{}{
				"doctor_id": schedule.DoctorID.String(),
				"date":      schedule.DateString(),
			})
	})
	if err != nil {
		return err
	}

	if err := u.slotLedger.DeleteSchedule(ctx, deleted); err != nil {
		u.log.Warnf("Failed to drop ledger keys for deleted schedule %s: %+v", scheduleID, err)
	}

	u.log.Infof("Schedule deleted: id=%s", scheduleID)
	return nil
}

func (u *scheduleUsecase) GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*dto.ScheduleResponse, error) {
	schedule, err := u.scheduleRepo.FindByID(ctx, u.db, scheduleID)
	if err != nil {
		u.log.Warnf("Failed to find schedule %s: %+v", scheduleID, err)
		return nil, err
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}
	return converter.ScheduleToResponse(schedule), nil
}

func (u *scheduleUsecase) ListSchedules(ctx context.Context, filter *entity.ScheduleFilter) (*dto.ScheduleListResponse, error) {
	schedules, err := u.scheduleRepo.FindFiltered(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to list schedules: %+v", err)
		return nil, err
	}

	return &dto.ScheduleListResponse{
		Schedules: converter.SchedulesToResponses(schedules),
		Total:     len(schedules),
	}, nil
}

func slotRequestsToSlots(reqs []dto.SlotRequest) []entity.Slot {
	slots := make([]entity.Slot, len(reqs))
	for i, r := range reqs {
		slots[i] = entity.Slot{
			ID:       r.ID,
			Start:    r.Start,
			End:      r.End,
			Capacity: r.Capacity,
		}
	}
	return slots
}
