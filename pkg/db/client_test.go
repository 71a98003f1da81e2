package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/qkart/pkg/config"
	"github.com/angelmondragon/qkart/pkg/logger"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type testEntry struct {
	ID        int
	ProductID string `gorm:"uniqueIndex"`
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.DB().AutoMigrate(&testEntry{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return client
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := newTestClient(t)
	db := client.DB()

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testEntry{ProductID: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testEntry{ProductID: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := newTestClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if err := client.DB().WithContext(ctx).Create(&testEntry{ProductID: "dup"}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := client.DB().WithContext(ctx).Create(&testEntry{ProductID: "dup"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected sqlite unique violation, got %v", err)
	}

	if !IsUniqueViolation(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint \"users_username_key\""}, "users_username_key") {
		t.Fatal("expected postgres unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503", Message: "foreign key"}, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil is not a violation")
	}
}

func TestQueryLoggerReportsSlowStatements(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf, Format: "json", Level: zerolog.DebugLevel})
	q := newQueryLogger(logg, 10*time.Millisecond)
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT * FROM products", 3 }

	q.Trace(ctx, time.Now(), stmt, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query should not be logged, got %s", buf.String())
	}

	q.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	if !strings.Contains(buf.String(), "db.slow_query") || !strings.Contains(buf.String(), "SELECT * FROM products") {
		t.Fatalf("expected slow query log, got %s", buf.String())
	}

	buf.Reset()
	q.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("record not found is not a failure, got %s", buf.String())
	}
	q.Trace(ctx, time.Now(), stmt, errors.New("syntax error"))
	if !strings.Contains(buf.String(), "db.query_failed") {
		t.Fatalf("expected failed query log, got %s", buf.String())
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	func() {
		defer func() { _ = recover() }()
		_ = client.WithTx(ctx, func(tx *gorm.DB) error {
			if err := tx.Create(&testEntry{ProductID: "panicked"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	}()

	var count int64
	if err := client.DB().Model(&testEntry{}).Where("product_id = ?", "panicked").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected panic to roll back, found %d rows", count)
	}
}
