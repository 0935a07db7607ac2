package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"caloriesense-backend/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxContextEntries bounds how many prior entries are fed back into a chat
// prompt as context.
const MaxContextEntries = 100

// SQLite only supports one writer at a time, so we need a lock
// whenever we write to the database
var dbMutex sync.Mutex

// Store is the append-only record of user interactions. It exposes no update
// or delete operations.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Append creates one immutable history entry. userMessage may be nil for
// interactions with no literal user text (bill-image analyses).
func (s *Store) Append(ctx context.Context, userId string, userMessage *string, aiResponse string) (database.HistoryEntry, error) {
	entry := database.HistoryEntry{
		Id:         uuid.New(),
		UserId:     userId,
		AiResponse: aiResponse,
		CreatedAt:  time.Now().UTC(),
	}
	if userMessage != nil {
		entry.UserMessage = sql.NullString{String: *userMessage, Valid: true}
	}

	dbMutex.Lock()
	defer dbMutex.Unlock()
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return database.HistoryEntry{}, fmt.Errorf("could not save history entry: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries for the user, most recent first. A
// non-positive or oversized limit is clamped to MaxContextEntries.
func (s *Store) Recent(ctx context.Context, userId string, limit int) ([]database.HistoryEntry, error) {
	if limit <= 0 || limit > MaxContextEntries {
		limit = MaxContextEntries
	}

	var entries []database.HistoryEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("could not query history: %w", err)
	}
	return entries, nil
}

// ContextSnippets extracts the AI responses from entries in the order given,
// for use as chat context.
func ContextSnippets(entries []database.HistoryEntry) []string {
	snippets := make([]string, len(entries))
	for i, entry := range entries {
		snippets[i] = entry.AiResponse
	}
	return snippets
}
