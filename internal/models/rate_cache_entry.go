package models

import "time"

// RateCacheEntry is one serialized cache slot in the session store.
// Value holds the JSON encoding of a GoldPriceQuote or ExchangeRateTable.
type RateCacheEntry struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     []byte    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name shared with the SQL migrations.
func (RateCacheEntry) TableName() string { return "rate_cache_entries" }
