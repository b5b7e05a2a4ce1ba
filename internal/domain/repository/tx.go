package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxManager runs a function inside one database transaction. Repositories take
// the transaction handle explicitly so composite writes (ledger mutation plus
// appointment row) commit or roll back as a unit.
type TxManager interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
}
