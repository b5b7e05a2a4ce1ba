package repository

import (
	"context"

	domainRepo "clinic-management-api/internal/domain/repository"

	"gorm.io/gorm"
)

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) domainRepo.TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}
