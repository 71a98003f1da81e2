package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/qkart/pkg/db/dbtest"
	"gorm.io/gorm"
)

type ctxKey struct{}

var errRollback = errors.New("rollback")

func TestNewBaseStoresConnection(t *testing.T) {
	conn := dbtest.Open(t).DB()
	base := NewBase(conn)

	if base.Conn() != conn {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	conn := dbtest.Open(t).DB()
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil || withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	if base.DB(nil) != conn {
		t.Fatalf("expected nil context to return raw connection")
	}

	var count int64
	if err := withCtx.Table("products").Count(&count).Error; err != nil {
		t.Fatalf("count products: %v", err)
	}
	if count != 8 {
		t.Fatalf("expected seeded catalog, got %d", count)
	}
}

func TestBaseDB_PrefersContextTransaction(t *testing.T) {
	conn := dbtest.Open(t).DB()
	base := NewBase(conn)

	err := conn.Transaction(func(tx *gorm.DB) error {
		ctx := WithTx(context.Background(), tx)
		if err := base.DB(ctx).Exec("DELETE FROM products").Error; err != nil {
			return err
		}
		var inside int64
		if err := base.DB(ctx).Table("products").Count(&inside).Error; err != nil {
			return err
		}
		if inside != 0 {
			t.Fatalf("expected delete visible inside tx, got %d", inside)
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("expected rollback sentinel, got %v", err)
	}

	var after int64
	if err := base.DB(context.Background()).Table("products").Count(&after).Error; err != nil {
		t.Fatalf("count products: %v", err)
	}
	if after != 8 {
		t.Fatalf("expected rollback to restore catalog, got %d", after)
	}
}
