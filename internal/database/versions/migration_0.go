package versions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryEntry struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId string `gorm:"index;not null"`

	UserMessage sql.NullString
	AiResponse  string `gorm:"not null"`

	CreatedAt time.Time `gorm:"index"`
}

func Migration0(db *gorm.DB) error {
	if err := db.AutoMigrate(&HistoryEntry{}); err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}
