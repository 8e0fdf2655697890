package models

import "time"

// KVEntry is a row of the process-local key-value table.
type KVEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "kv_entries" }
