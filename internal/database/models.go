package database

import "time"

// JournalEntry is one executed query.
type JournalEntry struct {
	ID         uint      `db:"id"          json:"id"`
	UserID     string    `db:"user_id"     json:"userId"`
	Input      string    `db:"input"       json:"input"`
	Intent     string    `db:"intent"      json:"intent"`
	Confidence float64   `db:"confidence"  json:"confidence"`
	ResultType string    `db:"result_type" json:"resultType"`
	Clarified  bool      `db:"clarified"   json:"clarified"`
	CreatedAt  time.Time `db:"created_at"  json:"createdAt"`
}
