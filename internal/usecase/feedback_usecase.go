package usecase

import (
	"context"
	"errors"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrFeedbackNotAllowed       = errors.New("appointment does not belong to you")
	ErrAppointmentNotCompleted  = errors.New("feedback requires a completed appointment")
	ErrFeedbackAlreadySubmitted = errors.New("feedback already submitted for this appointment")
)

type FeedbackUsecase interface {
	CreateFeedback(ctx context.Context, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error)
	ListFeedbacks(ctx context.Context, filter *entity.FeedbackFilter) (*dto.FeedbackListResponse, error)
}

type feedbackUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	txm             repository.TxManager
	feedbackRepo    repository.FeedbackRepository
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
}

func NewFeedbackUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	txm repository.TxManager,
	feedbackRepo repository.FeedbackRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) FeedbackUsecase {
	return &feedbackUsecase{
		db:              db,
		log:             log,
		txm:             txm,
		feedbackRepo:    feedbackRepo,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
	}
}

// CreateFeedback accepts one rating per completed appointment from the
// patient who attended it. The unique index on appointment_id backs the
// duplicate pre-check against races.
func (u *feedbackUsecase) CreateFeedback(ctx context.Context, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, req.AppointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", req.AppointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if appointment.PatientID != userID {
		return nil, ErrFeedbackNotAllowed
	}
	if appointment.Status != entity.AppointmentStatusCompleted {
		return nil, ErrAppointmentNotCompleted
	}

	existing, err := u.feedbackRepo.FindByAppointmentID(ctx, u.db, req.AppointmentID)
	if err != nil {
		u.log.Warnf("Failed to check existing feedback: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrFeedbackAlreadySubmitted
	}

	feedback := &entity.Feedback{
		AppointmentID: req.AppointmentID,
		DoctorID:      appointment.DoctorID,
		PatientID:     appointment.PatientID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}

	err = u.txm.Do(ctx, func(tx *gorm.DB) error {
		if err := u.feedbackRepo.Create(ctx, tx, feedback); err != nil {
			if isDuplicateKeyError(err, "appointment") {
				return ErrFeedbackAlreadySubmitted
			}
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &userID, entity.AuditActionFeedbackCreate,
			"feedback", feedback.ID.String(), map[string]interface{}{
				"appointment_id": req.AppointmentID.String(),
				"rating":         req.Rating,
			})
	})
	if err != nil {
		u.log.Warnf("Failed to create feedback: %+v", err)
		return nil, err
	}

	u.log.Infof("Feedback created: id=%s, appointment=%s, rating=%d", feedback.ID, req.AppointmentID, req.Rating)
	return converter.FeedbackToResponse(feedback), nil
}

func (u *feedbackUsecase) ListFeedbacks(ctx context.Context, filter *entity.FeedbackFilter) (*dto.FeedbackListResponse, error) {
	filter.Normalize()

	feedbacks, total, err := u.feedbackRepo.FindFiltered(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to list feedbacks: %+v", err)
		return nil, err
	}

	return &dto.FeedbackListResponse{
		Feedbacks: converter.FeedbacksToResponses(feedbacks),
		Total:     total,
	}, nil
}
