package usecase

import (
	"context"
	"time"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type PatientUsecase interface {
	CreatePatient(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error)
	GetPatient(ctx context.Context, userID uuid.UUID) (*dto.PatientResponse, error)
	ListPatients(ctx context.Context, keyword string) (*dto.PatientListResponse, error)
}

type patientUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	txm                repository.TxManager
	userRepo           repository.UserRepository
	patientProfileRepo repository.PatientProfileRepository
	auditService       service.AuditService
}

func NewPatientUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	txm repository.TxManager,
	userRepo repository.UserRepository,
	patientProfileRepo repository.PatientProfileRepository,
	auditService service.AuditService,
) PatientUsecase {
	return &patientUsecase{
		db:                 db,
		log:                log,
		txm:                txm,
		userRepo:           userRepo,
		patientProfileRepo: patientProfileRepo,
		auditService:       auditService,
	}
}

func (u *patientUsecase) CreatePatient(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	actorID, _ := middleware.GetUserIDFromContext(ctx)

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, ErrInvalidDateFormat
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
		RoleID:   entity.RoleIDPatient,
		IsActive: &active,
	}

	err = u.txm.Do(ctx, func(tx *gorm.DB) error {
		if err := u.userRepo.Create(ctx, tx, user); err != nil {
			if isDuplicateKeyError(err, "email") {
				return ErrEmailAlreadyExists
			}
			return err
		}

		profile := &entity.PatientProfile{
			UserID:      user.ID,
			DateOfBirth: dob,
			Gender:      req.Gender,
			Address:     req.Address,
		}
		if err := u.patientProfileRepo.Create(ctx, tx, profile); err != nil {
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &actorID, entity.AuditActionPatientCreate,
			"patient", user.ID.String(), map[string]interface{}{"email": req.Email})
	})
	if err != nil {
		u.log.Warnf("Failed to create patient: %+v", err)
		return nil, err
	}

	u.log.Infof("Patient created: id=%s", user.ID)
	return u.GetPatient(ctx, user.ID)
}

func (u *patientUsecase) GetPatient(ctx context.Context, userID uuid.UUID) (*dto.PatientResponse, error) {
	profile, err := u.patientProfileRepo.FindByUserID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", userID, err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrPatientNotFound
	}
	return converter.PatientToResponse(profile), nil
}

func (u *patientUsecase) ListPatients(ctx context.Context, keyword string) (*dto.PatientListResponse, error) {
	profiles, err := u.patientProfileRepo.FindAll(ctx, u.db, keyword)
	if err != nil {
		u.log.Warnf("Failed to list patients: %+v", err)
		return nil, err
	}

	return &dto.PatientListResponse{
		Patients: converter.PatientsToResponses(profiles),
		Total:    len(profiles),
	}, nil
}
