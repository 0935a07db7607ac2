package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"caloriesense-backend/internal/database"
	"caloriesense-backend/internal/genai"
	"caloriesense-backend/internal/history"
	"caloriesense-backend/internal/storage"
	pkgapi "caloriesense-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeInference stands in for the generative service. It records every
// prompt it receives and replies with a fixed generateContent body.
type fakeInference struct {
	server   *httptest.Server
	prompts  []string
	response string
	status   int
}

func newFakeInference(t *testing.T, text string) *fakeInference {
	t.Helper()
	f := &fakeInference{
		response: fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text),
		status:   http.StatusOK,
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			f.prompts = append(f.prompts, req.Contents[0].Parts[0].Text)
		}
		w.WriteHeader(f.status)
		w.Write([]byte(f.response)) //nolint:errcheck
	}))
	t.Cleanup(f.server.Close)
	return f
}

func setupTestService(t *testing.T, llm *fakeInference) (chi.Router, *history.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.GetMigrator(db).Migrate())

	store := history.NewStore(db)

	images, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	client := genai.NewClient(llm.server.URL, "test-key", "text-model", "vision-model")

	router := chi.NewRouter()
	NewCalorieService(store, client, images).AddRoutes(router)
	return router, store
}

func billUploadRequest(t *testing.T, userId string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("bill_image", "bill.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02})
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("user_id", userId))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/calorie", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func postJSON(t *testing.T, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAnalyzeBillEndpoint(t *testing.T) {
	llm := newFakeInference(t, "[MEAL SUMMARY]\nTotal Calories: 850")
	router, store := setupTestService(t, llm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, billUploadRequest(t, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Contains(t, res.Calories, "Total Calories: 850")
	assert.Empty(t, res.Warning)

	entries, err := store.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].UserId)
	assert.Equal(t, res.HistoryId, entries[0].Id)
	assert.False(t, entries[0].UserMessage.Valid)
}

func TestAnalyzeBillMissingFile(t *testing.T) {
	llm := newFakeInference(t, "unused")
	router, _ := setupTestService(t, llm)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("user_id", "u1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/calorie", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, llm.prompts)
}

func TestAnalyzeBillMissingUserId(t *testing.T) {
	llm := newFakeInference(t, "unused")
	router, _ := setupTestService(t, llm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, billUploadRequest(t, "  "))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, llm.prompts)
}

func TestManualEntryEndpoint(t *testing.T) {
	llm := newFakeInference(t, "Pizza is roughly 285 kcal per slice.")
	router, store := setupTestService(t, llm)

	req := postJSON(t, "/api/manual-entry", pkgapi.ManualEntryRequest{
		FoodItems: []pkgapi.FoodItem{
			{Name: "Pizza", Quantity: "2"},
			{Name: "", Quantity: ""},
		},
		UserId: "u2",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Contains(t, res.Calories, "285 kcal")

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "FOOD ITEMS:\n- Pizza (2)\n")
	assert.NotContains(t, llm.prompts[0], "- \n")

	entries, err := store.Recent(req.Context(), "u2", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].UserMessage.Valid)
	assert.Equal(t, "Manual entry: - Pizza (2)", entries[0].UserMessage.String)
}

func TestManualEntryAllItemsEmpty(t *testing.T) {
	llm := newFakeInference(t, "unused")
	router, store := setupTestService(t, llm)

	req := postJSON(t, "/api/manual-entry", pkgapi.ManualEntryRequest{
		FoodItems: []pkgapi.FoodItem{{Name: ""}, {Name: "   "}},
		UserId:    "u2",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, llm.prompts)

	entries, err := store.Recent(req.Context(), "u2", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestManualEntryMissingUserId(t *testing.T) {
	llm := newFakeInference(t, "unused")
	router, _ := setupTestService(t, llm)

	req := postJSON(t, "/api/manual-entry", pkgapi.ManualEntryRequest{
		FoodItems: []pkgapi.FoodItem{{Name: "Pizza"}},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, llm.prompts)
}

func TestChatWithoutHistory(t *testing.T) {
	llm := newFakeInference(t, "A medium apple is about 95 kcal.")
	router, _ := setupTestService(t, llm)

	req := postJSON(t, "/api/chat", pkgapi.ChatRequest{
		Message: "How many calories in an apple?",
		UserId:  "u3",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "A medium apple is about 95 kcal.", res.Response)
	assert.NotEqual(t, uuid.Nil, res.ChatId)

	require.Len(t, llm.prompts, 1)
	assert.NotContains(t, llm.prompts[0], "Here's some context from previous analyses:")
	assert.Contains(t, llm.prompts[0], "User question: How many calories in an apple?")
}

func TestChatUsesHistoryContext(t *testing.T) {
	llm := newFakeInference(t, "Based on your last meal, go lighter today.")
	router, store := setupTestService(t, llm)

	_, err := store.Append(context.Background(), "u3", nil, "Total Calories: 850")
	require.NoError(t, err)

	req := postJSON(t, "/api/chat", pkgapi.ChatRequest{Message: "What next?", UserId: "u3"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Here's some context from previous analyses:")
	assert.Contains(t, llm.prompts[0], "Total Calories: 850\n---\n")
}

func TestChatFallbackOnEmptyResponse(t *testing.T) {
	llm := newFakeInference(t, "unused")
	llm.response = `{"candidates":[]}`
	router, _ := setupTestService(t, llm)

	req := postJSON(t, "/api/chat", pkgapi.ChatRequest{Message: "hello", UserId: "u3"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, genai.FallbackTryAgain, res.Response)
}

func TestChatInferenceFailure(t *testing.T) {
	llm := newFakeInference(t, "unused")
	llm.status = http.StatusInternalServerError
	router, store := setupTestService(t, llm)

	req := postJSON(t, "/api/chat", pkgapi.ChatRequest{Message: "hello", UserId: "u3"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries, err := store.Recent(req.Context(), "u3", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChatMissingFields(t *testing.T) {
	llm := newFakeInference(t, "unused")
	router, _ := setupTestService(t, llm)

	for _, payload := range []pkgapi.ChatRequest{
		{Message: "", UserId: "u3"},
		{Message: "hello", UserId: ""},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, postJSON(t, "/api/chat", payload))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	assert.Empty(t, llm.prompts)
}

func TestGetHistoryEndpoint(t *testing.T) {
	llm := newFakeInference(t, "unused")
	router, store := setupTestService(t, llm)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, "u4", nil, fmt.Sprintf("analysis %d", i))
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?user_id=u4&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res pkgapi.GetHistoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "analysis 2", res.Entries[0].AiResponse)
	assert.Equal(t, "analysis 1", res.Entries[1].AiResponse)
}

func TestGetHistoryMissingUserId(t *testing.T) {
	llm := newFakeInference(t, "unused")
	router, _ := setupTestService(t, llm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	llm := newFakeInference(t, "unused")
	router, _ := setupTestService(t, llm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
