package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one persisted request/response interaction. Entries are
// append-only: nothing in the service updates or deletes them.
type HistoryEntry struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId string `gorm:"index;not null"`

	// UserMessage is absent for bill-image analyses, which have no literal
	// user text.
	UserMessage sql.NullString
	AiResponse  string `gorm:"not null"`

	CreatedAt time.Time `gorm:"index"`
}
