package repository

import (
	"context"

	"clinic-management-api/internal/domain/entity"

	"gorm.io/gorm"
)

type SpecialtyRepository interface {
	FindAll(ctx context.Context, db *gorm.DB) ([]entity.Specialty, error)
	FindByID(ctx context.Context, db *gorm.DB, id int) (*entity.Specialty, error)
}
