package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/kv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of kv_entries.
type Entry struct {
	Key       string `gorm:"primaryKey;column:entry_key"`
	Value     string `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "kv_entries" }

var _ kv.Store = (*Client)(nil)

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	var entry Entry
	err := c.conn.WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return entry.Value, nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := c.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in one transaction.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("entry_key IN ?", keys).Delete(&Entry{}).Error; err != nil {
			return fmt.Errorf("delete keys: %w", err)
		}
		return nil
	})
}
