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
	"clinic-management-api/internal/infrastructure/cache"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrSchedulePast        = errors.New("cannot book a past schedule")
	ErrSlotBusy            = errors.New("slot is busy, please retry")
)

type AppointmentUsecase interface {
	Book(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID) error
	UpdateStatus(ctx context.Context, appointmentID uuid.UUID, req *dto.UpdateAppointmentStatusRequest) error
	GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	ListAppointments(ctx context.Context, filter *entity.AppointmentFilter) (*dto.AppointmentListResponse, error)
}

type appointmentUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	txm                repository.TxManager
	appointmentRepo    repository.AppointmentRepository
	scheduleRepo       repository.ScheduleRepository
	patientProfileRepo repository.PatientProfileRepository
	slotLocker         cache.SlotLocker
	slotLedger         service.SlotLedger
	auditService       service.AuditService
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	txm repository.TxManager,
	appointmentRepo repository.AppointmentRepository,
	scheduleRepo repository.ScheduleRepository,
	patientProfileRepo repository.PatientProfileRepository,
	slotLocker cache.SlotLocker,
	slotLedger service.SlotLedger,
	auditService service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:                 db,
		log:                log,
		txm:                txm,
		appointmentRepo:    appointmentRepo,
		scheduleRepo:       scheduleRepo,
		patientProfileRepo: patientProfileRepo,
		slotLocker:         slotLocker,
		slotLedger:         slotLedger,
		auditService:       auditService,
	}
}

// Book reserves one unit of slot capacity and creates the appointment row.
//
// Flow:
//  1. Load schedule and resolve the slot by its stable ID
//  2. Acquire the per-slot lock (bounded wait, contention surfaces as ErrSlotBusy)
//  3. Reserve in the Redis slot ledger (fast capacity gate)
//  4. In one DB transaction: conditional booked_count increment + appointment insert
//  5. If the transaction fails, release the Redis reservation (compensation)
//
// The conditional increment is the source of truth: zero rows affected means
// the slot is at capacity regardless of what the Redis counter said.
func (u *appointmentUsecase) Book(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	actorID, _ := middleware.GetUserIDFromContext(ctx)

	schedule, err := u.scheduleRepo.FindByID(ctx, u.db, req.ScheduleID)
	if err != nil {
		u.log.Warnf("Failed to find schedule %s: %+v", req.ScheduleID, err)
		return nil, err
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}

	slot, slotIndex, err := schedule.SlotByID(req.SlotID)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if schedule.ScheduleDate.Before(today) {
		return nil, ErrSchedulePast
	}

	patient, err := u.patientProfileRepo.FindByUserID(ctx, u.db, req.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", req.PatientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	appointment := &entity.Appointment{
		PatientID:  req.PatientID,
		DoctorID:   schedule.DoctorID,
		ScheduleID: schedule.ID,
		SlotID:     slot.ID,
		SlotIndex:  slotIndex,
		Reason:     req.Reason,
		Note:       req.Note,
		Status:     entity.AppointmentStatusConfirmed,
	}

	err = u.slotLocker.WithSlotLock(ctx, schedule.ID, slot.ID, func(lockCtx context.Context) error {
		if err := u.slotLedger.Reserve(lockCtx, schedule, slot.ID); err != nil {
			return err
		}

		txErr := u.txm.Do(lockCtx, func(tx *gorm.DB) error {
			rows, err := u.scheduleRepo.IncrementSlotBooked(lockCtx, tx, schedule.ID, slot.ID)
			if err != nil {
				return err
			}
			if rows == 0 {
				return entity.ErrSlotFull
			}

			if err := u.appointmentRepo.Create(lockCtx, tx, appointment); err != nil {
				return err
			}

			return u.auditService.LogCreate(lockCtx, tx, &actorID, entity.AuditActionAppointmentBook,
				"appointment", appointment.ID.String(), map[string]interface{}{
					"schedule_id": schedule.ID.String(),
					"slot_id":     slot.ID,
					"patient_id":  req.PatientID.String(),
				})
		})
		if txErr != nil {
			// Compensate: the Redis reservation is orphaned once the
			// transaction rolled back.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if releaseErr := u.slotLedger.Release(releaseCtx, schedule.ID, slot.ID); releaseErr != nil {
				u.log.Errorf("Failed to release ledger reservation after rollback for slot %s of schedule %s: %+v",
					slot.ID, schedule.ID, releaseErr)
			}
			return txErr
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, cache.ErrSlotLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		if errors.Is(err, entity.ErrSlotFull) {
			return nil, entity.ErrSlotFull
		}
		u.log.Warnf("Failed to book slot %s of schedule %s: %+v", slot.ID, schedule.ID, err)
		return nil, err
	}

	u.log.Infof("Appointment booked: id=%s, schedule=%s, slot=%s, patient=%s",
		appointment.ID, schedule.ID, slot.ID, req.PatientID)

	full, err := u.appointmentRepo.FindByID(ctx, u.db, appointment.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointment.ID, err)
		return converter.AppointmentToResponse(appointment), nil
	}
	return converter.AppointmentToResponse(full), nil
}

// Cancel flips confirmed -> canceled and releases the slot unit. The status
// flip and the booked_count decrement commit together; the Redis counter is
// released after commit and is non-fatal on failure since the next sync
// rebuilds it.
func (u *appointmentUsecase) Cancel(ctx context.Context, appointmentID uuid.UUID) error {
	actorID, _ := middleware.GetUserIDFromContext(ctx)
	roleID, _ := middleware.GetRoleIDFromContext(ctx)
	actor := entity.CancelActorForRole(roleID)

	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}
	if !appointment.IsConfirmed() {
		return entity.ErrNotCancelable
	}

	err = u.slotLocker.WithSlotLock(ctx, appointment.ScheduleID, appointment.SlotID, func(lockCtx context.Context) error {
		return u.txm.Do(lockCtx, func(tx *gorm.DB) error {
			rows, err := u.appointmentRepo.CancelConfirmed(lockCtx, tx, appointmentID, actor, time.Now().UTC())
			if err != nil {
				return err
			}
			if rows == 0 {
				// Lost the race to another cancel or status update.
				return entity.ErrNotCancelable
			}

			decRows, err := u.scheduleRepo.DecrementSlotBooked(lockCtx, tx, appointment.ScheduleID, appointment.SlotID)
			if err != nil {
				return err
			}
			if decRows == 0 {
				// Count already at zero while a confirmed appointment existed.
				// Invariant breach between ledger and appointment rows; the
				// cancellation itself is still valid, so log and continue.
				u.log.Errorf("Slot ledger desync: decrement of slot %s of schedule %s hit zero with a confirmed appointment present",
					appointment.SlotID, appointment.ScheduleID)
			}

			return u.auditService.LogUpdate(lockCtx, tx, &actorID, entity.AuditActionAppointmentCancel,
				"appointment", appointmentID.String(),
				map[string]interface{}{"status": string(entity.AppointmentStatusConfirmed)},
				map[string]interface{}{"status": string(entity.AppointmentStatusCanceled), "canceled_by": string(actor)})
		})
	})
	if err != nil {
		if errors.Is(err, cache.ErrSlotLockNotAcquired) {
			return ErrSlotBusy
		}
		return err
	}

	releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := u.slotLedger.Release(releaseCtx, appointment.ScheduleID, appointment.SlotID); err != nil {
		u.log.Warnf("Failed to release ledger unit for slot %s of schedule %s (non-fatal): %+v",
			appointment.SlotID, appointment.ScheduleID, err)
	}

	u.log.Infof("Appointment canceled: id=%s, by=%s", appointmentID, actor)
	return nil
}

// UpdateStatus moves a confirmed appointment to completed or no_show. These
// are terminal outcomes that keep the slot unit consumed, so no ledger change.
func (u *appointmentUsecase) UpdateStatus(ctx context.Context, appointmentID uuid.UUID, req *dto.UpdateAppointmentStatusRequest) error {
	actorID, _ := middleware.GetUserIDFromContext(ctx)
	target := entity.AppointmentStatus(req.Status)

	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}
	if err := appointment.Transition(target); err != nil {
		return err
	}

	return u.txm.Do(ctx, func(tx *gorm.DB) error {
		rows, err := u.appointmentRepo.TransitionConfirmed(ctx, tx, appointmentID, target)
		if err != nil {
			return err
		}
		if rows == 0 {
			return entity.ErrInvalidStateTransition
		}

		return u.auditService.LogUpdate(ctx, tx, &actorID, entity.AuditActionAppointmentStatus,
			"appointment", appointmentID.String(),
			map[string]interface{}{"status": string(entity.AppointmentStatusConfirmed)},
			map[string]interface{}{"status": string(target)})
	})
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) ListAppointments(ctx context.Context, filter *entity.AppointmentFilter) (*dto.AppointmentListResponse, error) {
	filter.Normalize()

	appointments, total, err := u.appointmentRepo.FindFiltered(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        total,
	}, nil
}
