package aggregates

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
)

// TxRunner is the transaction boundary for writes that must land together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return apierr.Internal("tx.run", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
