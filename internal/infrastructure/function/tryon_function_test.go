package function

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appservices "github.com/lakarijeprvovencani/tl-tryon/internal/application/services"
	"github.com/lakarijeprvovencani/tl-tryon/internal/application/usecases"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	domainservices "github.com/lakarijeprvovencani/tl-tryon/internal/domain/services"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
)

var testPNG = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

type fakeImageService struct {
	mu          sync.Mutex
	parts       []entities.ContentPart
	err         error
	prompts     []string
	imageCounts []int
}

func (f *fakeImageService) EditImage(ctx context.Context, prompt string, images []*valueobjects.ImageData) ([]entities.ContentPart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.imageCounts = append(f.imageCounts, len(images))
	return f.parts, f.err
}

func (f *fakeImageService) Model() string { return "fake-model" }

func newTestHandler(t *testing.T, fake *fakeImageService) *Handler {
	t.Helper()
	prompts, err := domainservices.NewPromptBuilder(domainservices.DefaultPromptTemplates())
	require.NoError(t, err)
	policy, err := valueobjects.NewRetryPolicy(2, 0)
	require.NoError(t, err)

	domain := domainservices.NewTryOnDomainService(fake, prompts, policy)
	uc := usecases.NewTryOnUseCase(domain, usecases.TryOnUseCaseOptions{MaxConcurrent: 2, Timeout: 5 * time.Second})
	return NewHandler(uc, appservices.NewImageInputService(), "black plush tracksuit (jacket + pants)")
}

func postEvent(t *testing.T, payload any) Event {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return Event{
		HTTPMethod: "POST",
		Headers:    map[string]string{"Origin": "https://shop.example"},
		Body:       string(body),
	}
}

func decodeBody(t *testing.T, resp Response) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body
}

func TestHandle_Preflight(t *testing.T) {
	h := newTestHandler(t, &fakeImageService{})

	resp := h.Handle(context.Background(), Event{HTTPMethod: "OPTIONS", Headers: map[string]string{"origin": "https://shop.example"}})

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "https://shop.example", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "POST, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
	assert.Equal(t, "Content-Type", resp.Headers["Access-Control-Allow-Headers"])
	assert.Equal(t, "86400", resp.Headers["Access-Control-Max-Age"])
	assert.Empty(t, resp.Body)
}

func TestHandle_RequestErrors(t *testing.T) {
	tests := []struct {
		name      string
		event     Event
		wantCode  int
		wantError string
	}{
		{"method not allowed", Event{HTTPMethod: "GET"}, 405, "Method not allowed"},
		{"invalid json", Event{HTTPMethod: "POST", Body: "{not json"}, 400, "Invalid JSON data"},
		{"missing person", Event{HTTPMethod: "POST", Body: `{"garmentImage":"abc"}`}, 400, "Person image is required"},
		{"person not base64", Event{HTTPMethod: "POST", Body: `{"personImage":"!!!"}`}, 400, "image is not valid base64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeImageService{}
			h := newTestHandler(t, fake)

			resp := h.Handle(context.Background(), tt.event)

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])
			assert.Equal(t, tt.wantError, decodeBody(t, resp)["error"])
			assert.Empty(t, fake.prompts)
		})
	}
}

func TestHandle_Success(t *testing.T) {
	fake := &fakeImageService{parts: []entities.ContentPart{
		entities.NewTextPart("done"),
		entities.NewInlineDataPart(testPNG, "image/png"),
	}}
	h := newTestHandler(t, fake)

	person := base64.StdEncoding.EncodeToString(testPNG)
	resp := h.Handle(context.Background(), postEvent(t, Payload{PersonImage: person}))

	require.Equal(t, 200, resp.StatusCode)
	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, "image/png", resp.Headers["Content-Type"])
	assert.Equal(t, "no-cache", resp.Headers["Cache-Control"])
	assert.Equal(t, "https://shop.example", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(testPNG), resp.Body)

	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "black plush tracksuit (jacket + pants)")
	assert.Equal(t, []int{1}, fake.imageCounts)
}

func TestHandle_PassesModelMimeType(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	fake := &fakeImageService{parts: []entities.ContentPart{entities.NewInlineDataPart(jpeg, "image/jpeg")}}
	h := newTestHandler(t, fake)

	resp := h.Handle(context.Background(), postEvent(t, Payload{PersonImage: base64.StdEncoding.EncodeToString(testPNG)}))

	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Headers["Content-Type"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(jpeg), resp.Body)
}

func TestHandle_WithGarmentImage(t *testing.T) {
	fake := &fakeImageService{parts: []entities.ContentPart{entities.NewInlineDataPart(testPNG, "image/png")}}
	h := newTestHandler(t, fake)

	encoded := base64.StdEncoding.EncodeToString(testPNG)
	resp := h.Handle(context.Background(), postEvent(t, Payload{PersonImage: encoded, GarmentImage: encoded}))

	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []int{2}, fake.imageCounts)
	assert.Contains(t, fake.prompts[0], "second image")
}

func TestHandle_Failures(t *testing.T) {
	tests := []struct {
		name        string
		fake        *fakeImageService
		wantCode    int
		wantDetails string
		wantCalls   int
	}{
		{
			name:        "no image produced",
			fake:        &fakeImageService{parts: []entities.ContentPart{entities.NewTextPart("I cannot edit this photo")}},
			wantCode:    502,
			wantDetails: "I cannot edit this photo",
			wantCalls:   1,
		},
		{
			name:      "upstream failure after retry",
			fake:      &fakeImageService{err: errors.New("connection reset")},
			wantCode:  500,
			wantCalls: 2,
		},
		{
			name:      "missing credentials",
			fake:      &fakeImageService{err: errs.Configuration("GEMINI_API_KEY is not set")},
			wantCode:  500,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.fake)

			person := base64.StdEncoding.EncodeToString(testPNG)
			resp := h.Handle(context.Background(), postEvent(t, Payload{PersonImage: person}))

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.False(t, resp.IsBase64Encoded)
			body := decodeBody(t, resp)
			assert.NotEmpty(t, body["error"])
			if tt.wantDetails != "" {
				assert.Equal(t, tt.wantDetails, body["details"])
			}
			assert.Len(t, tt.fake.prompts, tt.wantCalls)
		})
	}
}

func TestHandler_ServeHTTP(t *testing.T) {
	fake := &fakeImageService{parts: []entities.ContentPart{entities.NewInlineDataPart(testPNG, "image/png")}}
	h := newTestHandler(t, fake)

	body := `{"personImage":"` + base64.StdEncoding.EncodeToString(testPNG) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/.netlify/functions/tryon", strings.NewReader(body))
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, testPNG, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/.netlify/functions/tryon", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}
