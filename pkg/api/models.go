package api

import (
	"time"

	"github.com/google/uuid"
)

// FoodItem is one manually entered dish. Items whose name is empty after
// trimming are dropped before the prompt is composed.
type FoodItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
}

type ManualEntryRequest struct {
	FoodItems []FoodItem `json:"food_items"`
	UserId    string     `json:"user_id"`
}

// AnalysisResponse is returned by both the bill-image and manual-entry
// endpoints. Warning is set when the analysis succeeded but could not be
// saved to history.
type AnalysisResponse struct {
	Calories  string    `json:"calories"`
	HistoryId uuid.UUID `json:"history_id,omitempty"`
	Warning   string    `json:"warning,omitempty"`
}

type ChatRequest struct {
	Message string `json:"message"`
	UserId  string `json:"user_id"`
}

type ChatResponse struct {
	Response string    `json:"response"`
	ChatId   uuid.UUID `json:"chat_id,omitempty"`
	Warning  string    `json:"warning,omitempty"`
}

type GetHistoryRequest struct {
	UserId string `schema:"user_id"`
	Limit  int    `schema:"limit"`
}

type HistoryItem struct {
	Id          uuid.UUID `json:"id"`
	UserMessage *string   `json:"user_message,omitempty"`
	AiResponse  string    `json:"ai_response"`
	CreatedAt   time.Time `json:"created_at"`
}

type GetHistoryResponse struct {
	Entries []HistoryItem `json:"entries"`
}
