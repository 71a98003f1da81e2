package repo

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx returns a context whose repository calls run inside tx.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Base is embedded by repositories to resolve the connection for a call.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB prefers a transaction carried by ctx over the base connection and binds
// ctx to the returned handle. A nil ctx yields the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return b.db.WithContext(ctx)
}

func (b Base) Conn() *gorm.DB {
	return b.db
}
