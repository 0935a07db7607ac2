package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"caloriesense-backend/internal/genai"
	"caloriesense-backend/internal/history"
	"caloriesense-backend/internal/prompt"
	"caloriesense-backend/internal/storage"
	"caloriesense-backend/pkg/api"
)

const maxUploadSize = 10 << 20 // 10MB bill images

// saveWarning is returned alongside a successful analysis when the history
// append failed. Persistence is best effort on every endpoint: the user still
// gets the text they paid an inference call for.
const saveWarning = "Analysis generated but couldn't be saved to history"

// InferenceClient is the external generative-text collaborator.
type InferenceClient interface {
	Generate(ctx context.Context, promptText string, attachment *genai.Attachment) ([]byte, error)
}

type CalorieService struct {
	store  *history.Store
	llm    InferenceClient
	images storage.ObjectStore
}

func NewCalorieService(store *history.Store, llm InferenceClient, images storage.ObjectStore) *CalorieService {
	return &CalorieService{
		store:  store,
		llm:    llm,
		images: images,
	}
}

func (s *CalorieService) AddRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/calorie", RestHandler(s.AnalyzeBill))
		r.Post("/manual-entry", RestHandler(s.ManualEntry))
		r.Post("/chat", RestHandler(s.Chat))
		r.Get("/history", RestHandler(s.GetHistory))
		r.Get("/health", RestHandler(s.Health))
	})
}

// AnalyzeBill handles a multipart bill-image upload: the image is sent to the
// inference service with the bill-analysis prompt and the resulting text is
// appended to the user's history.
func (s *CalorieService) AnalyzeBill(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	file, header, err := r.FormFile("bill_image")
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "no file uploaded")
	}
	defer file.Close()

	userId := strings.TrimSpace(r.FormValue("user_id"))
	if userId == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "user id required")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to read uploaded file")
	}
	if len(data) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "uploaded file is empty")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	body, err := s.llm.Generate(r.Context(), prompt.BillAnalysis(), &genai.Attachment{
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error analyzing bill: %w", err)
	}
	text := genai.ExtractText(body, genai.FallbackNoResponse)

	res := api.AnalysisResponse{Calories: text}

	entry, err := s.store.Append(r.Context(), userId, nil, text)
	if err != nil {
		slog.Error("error saving bill analysis to history", "user_id", userId, "error", err)
		res.Warning = saveWarning
		return res, nil
	}
	res.HistoryId = entry.Id

	s.saveBillImage(r.Context(), entry.Id.String(), mimeType, data)

	return res, nil
}

// saveBillImage stores the uploaded image keyed by the history entry it
// produced. Failures are logged and swallowed: the analysis is already saved.
func (s *CalorieService) saveBillImage(ctx context.Context, entryId, mimeType string, data []byte) {
	if s.images == nil {
		return
	}

	key := "bills/" + entryId + imageExtension(mimeType)
	if err := s.images.PutObject(ctx, key, bytes.NewReader(data)); err != nil {
		slog.Warn("error saving bill image", "key", key, "error", err)
	}
}

func imageExtension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// ManualEntry handles a typed-in food item list.
func (s *CalorieService) ManualEntry(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ManualEntryRequest](r)
	if err != nil {
		return nil, err
	}

	if len(req.FoodItems) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "food items are required")
	}
	if strings.TrimSpace(req.UserId) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "user id required")
	}

	itemsBlock := prompt.FormatFoodItems(req.FoodItems)
	if itemsBlock == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "at least one valid food item is required")
	}

	body, err := s.llm.Generate(r.Context(), prompt.ManualEntry(itemsBlock), nil)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error analyzing food items: %w", err)
	}
	text := genai.ExtractText(body, genai.FallbackTryAgain)

	res := api.AnalysisResponse{Calories: text}

	userMessage := "Manual entry: " + itemsBlock
	entry, err := s.store.Append(r.Context(), req.UserId, &userMessage, text)
	if err != nil {
		slog.Error("error saving manual entry to history", "user_id", req.UserId, "error", err)
		res.Warning = saveWarning
		return res, nil
	}
	res.HistoryId = entry.Id

	return res, nil
}

// Chat answers a freeform nutrition question, feeding the user's recent
// analyses back in as context.
func (s *CalorieService) Chat(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ChatRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Message) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "message is required")
	}
	if strings.TrimSpace(req.UserId) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "user id required")
	}

	entries, err := s.store.Recent(r.Context(), req.UserId, history.MaxContextEntries)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error loading chat context: %w", err)
	}

	body, err := s.llm.Generate(r.Context(), prompt.Chat(req.Message, history.ContextSnippets(entries)), nil)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error generating chat response: %w", err)
	}
	text := genai.ExtractText(body, genai.FallbackTryAgain)

	res := api.ChatResponse{Response: text}

	entry, err := s.store.Append(r.Context(), req.UserId, &req.Message, text)
	if err != nil {
		slog.Error("error saving chat to history", "user_id", req.UserId, "error", err)
		res.Warning = saveWarning
		return res, nil
	}
	res.ChatId = entry.Id

	return res, nil
}

// GetHistory returns the most recent entries for a user, newest first.
func (s *CalorieService) GetHistory(r *http.Request) (any, error) {
	req, err := ParseRequestQueryParams[api.GetHistoryRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.UserId) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "user id required")
	}

	entries, err := s.store.Recent(r.Context(), req.UserId, req.Limit)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error loading history: %w", err)
	}

	res := api.GetHistoryResponse{Entries: make([]api.HistoryItem, len(entries))}
	for i, entry := range entries {
		item := api.HistoryItem{
			Id:         entry.Id,
			AiResponse: entry.AiResponse,
			CreatedAt:  entry.CreatedAt,
		}
		if entry.UserMessage.Valid {
			msg := entry.UserMessage.String
			item.UserMessage = &msg
		}
		res.Entries[i] = item
	}

	return res, nil
}

func (s *CalorieService) Health(r *http.Request) (any, error) {
	return map[string]string{"status": "ok"}, nil
}
