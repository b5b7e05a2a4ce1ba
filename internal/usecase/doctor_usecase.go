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
	"clinic-management-api/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrSpecialtyNotFound  = errors.New("specialty not found")
)

type DoctorUsecase interface {
	CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	GetDoctor(ctx context.Context, userID uuid.UUID) (*dto.DoctorResponse, error)
	ListDoctors(ctx context.Context, filter *entity.DoctorFilter) (*dto.DoctorListResponse, *response.Meta, error)
}

type doctorUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	txm               repository.TxManager
	userRepo          repository.UserRepository
	doctorProfileRepo repository.DoctorProfileRepository
	specialtyRepo     repository.SpecialtyRepository
	auditService      service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	txm repository.TxManager,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	specialtyRepo repository.SpecialtyRepository,
	auditService service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:                db,
		log:               log,
		txm:               txm,
		userRepo:          userRepo,
		doctorProfileRepo: doctorProfileRepo,
		specialtyRepo:     specialtyRepo,
		auditService:      auditService,
	}
}

func (u *doctorUsecase) CreateDoctor(ctx context.Context, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	actorID, _ := middleware.GetUserIDFromContext(ctx)

	specialty, err := u.specialtyRepo.FindByID(ctx, u.db, req.SpecialtyID)
	if err != nil {
		u.log.Warnf("Failed to find specialty %d: %+v", req.SpecialtyID, err)
		return nil, err
	}
	if specialty == nil {
		return nil, ErrSpecialtyNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	active := true
	user := &entity.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		FullName: req.FullName,
		Phone:    req.Phone,
		RoleID:   entity.RoleIDDoctor,
		IsActive: &active,
	}

	err = u.txm.Do(ctx, func(tx *gorm.DB) error {
		if err := u.userRepo.Create(ctx, tx, user); err != nil {
			if isDuplicateKeyError(err, "email") {
				return ErrEmailAlreadyExists
			}
			return err
		}

		profile := &entity.DoctorProfile{
			UserID:      user.ID,
			SpecialtyID: req.SpecialtyID,
			Bio:         req.Bio,
			Room:        req.Room,
		}
		if err := u.doctorProfileRepo.Create(ctx, tx, profile); err != nil {
			if isForeignKeyError(err, "specialty") {
				return ErrSpecialtyNotFound
			}
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &actorID, entity.AuditActionDoctorCreate,
			"doctor", user.ID.String(), map[string]interface{}{
				"email":        req.Email,
				"specialty_id": req.SpecialtyID,
			})
	})
	if err != nil {
		u.log.Warnf("Failed to create doctor: %+v", err)
		return nil, err
	}

	u.log.Infof("Doctor created: id=%s, specialty=%d", user.ID, req.SpecialtyID)
	return u.GetDoctor(ctx, user.ID)
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, userID uuid.UUID) (*dto.DoctorResponse, error) {
	profile, err := u.doctorProfileRepo.FindByUserID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", userID, err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}
	return converter.DoctorToResponse(profile), nil
}

func (u *doctorUsecase) ListDoctors(ctx context.Context, filter *entity.DoctorFilter) (*dto.DoctorListResponse, *response.Meta, error) {
	filter.Normalize()

	profiles, total, err := u.doctorProfileRepo.FindFiltered(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to list doctors: %+v", err)
		return nil, nil, err
	}

	meta := &response.Meta{
		Page:       filter.Page,
		Limit:      filter.PageSize,
		Total:      total,
		TotalPages: int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize)),
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(profiles),
		Total:   total,
	}, meta, nil
}
