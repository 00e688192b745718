package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/storefront/pkg/kv"
	"gorm.io/gorm"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), filepath.Join(t.TempDir(), "nested", "state.db"), nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStoreRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Get(ctx, "token"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected kv.ErrNotFound, got %v", err)
	}

	if err := client.Set(ctx, "token", "first"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := client.Set(ctx, "token", "second"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, err := client.Get(ctx, "token")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "second" {
		t.Fatalf("expected upserted value, got %q", got)
	}

	var count int64
	if err := client.DB().Model(&Entry{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}

	if err := client.Set(ctx, "refreshToken", "r"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := client.Delete(ctx, "token", "refreshToken"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := client.Get(ctx, "refreshToken"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected deleted key to be missing, got %v", err)
	}
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&Entry{Key: "committed", Value: "1"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&Entry{Key: "rolled", Value: "1"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}

	var count int64
	if err := client.DB().Model(&Entry{}).Count(&count).Error; err != nil {
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

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), "", nil); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
