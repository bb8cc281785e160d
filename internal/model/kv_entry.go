package model

import "time"

// KVEntry is the row shape of the key-value table used by the postgres driver
type KVEntry struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name
func (KVEntry) TableName() string {
	return "kv_entries"
}
