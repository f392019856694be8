// Package gorm provides GORM model definitions and the relational
// key-value store shared by the sqlite and postgres drivers
package gorm

import (
	"time"
)

// KVEntryModel is one stored document
type KVEntryModel struct {
	Key       string `gorm:"type:varchar(255);primaryKey"`
	Value     []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for KVEntryModel
func (KVEntryModel) TableName() string {
	return "kv_entries"
}
