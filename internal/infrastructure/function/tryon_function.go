// Package function serves the try-on pipeline in the serverless function
// shape: a JSON event in, a JSON envelope out.
package function

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lakarijeprvovencani/tl-tryon/internal/application/services"
	"github.com/lakarijeprvovencani/tl-tryon/internal/application/usecases"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
)

// Event is the invocation payload.
type Event struct {
	HTTPMethod      string            `json:"httpMethod"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

// Response is the invocation result. Body holds base64 when IsBase64Encoded.
type Response struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded,omitempty"`
}

// Payload is the JSON body of a POST event. Images are base64 without a data
// URL prefix.
type Payload struct {
	PersonImage  string `json:"personImage"`
	GarmentImage string `json:"garmentImage"`
}

type Handler struct {
	tryOnUseCase       *usecases.TryOnUseCase
	inputService       *services.ImageInputService
	garmentDescription string
}

func NewHandler(
	tryOnUseCase *usecases.TryOnUseCase,
	inputService *services.ImageInputService,
	garmentDescription string,
) *Handler {
	return &Handler{
		tryOnUseCase:       tryOnUseCase,
		inputService:       inputService,
		garmentDescription: garmentDescription,
	}
}

// Handle runs one invocation. It never returns an error: every failure is
// expressed as a response envelope.
func (h *Handler) Handle(ctx context.Context, event Event) Response {
	origin := header(event.Headers, "origin")
	if origin == "" {
		origin = "*"
	}

	switch strings.ToUpper(event.HTTPMethod) {
	case "OPTIONS":
		return Response{
			StatusCode: 200,
			Headers: map[string]string{
				"Access-Control-Allow-Origin":  origin,
				"Access-Control-Allow-Methods": "POST, OPTIONS",
				"Access-Control-Allow-Headers": "Content-Type",
				"Access-Control-Max-Age":       "86400",
			},
		}
	case "POST":
	default:
		return jsonResponse(405, origin, map[string]string{"error": "Method not allowed"})
	}

	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return jsonResponse(400, origin, map[string]string{"error": "Invalid JSON data"})
		}
		body = string(decoded)
	}

	var payload Payload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return jsonResponse(400, origin, map[string]string{"error": "Invalid JSON data"})
	}
	if payload.PersonImage == "" {
		return jsonResponse(400, origin, map[string]string{"error": "Person image is required"})
	}

	input, err := h.buildInput(payload)
	if err != nil {
		return h.errorResponse(origin, err)
	}

	output, err := h.tryOnUseCase.Execute(ctx, *input)
	if err != nil {
		return h.errorResponse(origin, err)
	}

	return Response{
		StatusCode: 200,
		Headers: map[string]string{
			"Access-Control-Allow-Origin": origin,
			"Content-Type":                output.Image.Type,
			"Cache-Control":               "no-cache",
		},
		Body:            base64.StdEncoding.EncodeToString(output.Image.Data),
		IsBase64Encoded: true,
	}
}

func (h *Handler) buildInput(payload Payload) (*usecases.TryOnInput, error) {
	// mime は内容から判定する
	person, err := h.inputService.DecodeBase64(payload.PersonImage, "")
	if err != nil {
		return nil, err
	}

	input := &usecases.TryOnInput{
		PersonImage:        person,
		GarmentDescription: h.garmentDescription,
	}

	if payload.GarmentImage != "" {
		garment, err := h.inputService.DecodeBase64(payload.GarmentImage, "")
		if err != nil {
			return nil, err
		}
		input.GarmentImage = garment
	}

	return input, nil
}

func (h *Handler) errorResponse(origin string, err error) Response {
	kind := errs.KindOf(err)
	log.Error().Err(err).Str("kind", string(kind)).Msg("Try-on function failed")

	switch kind {
	case errs.KindValidation:
		return jsonResponse(400, origin, map[string]string{"error": err.Error()})
	case errs.KindNoImageProduced:
		return jsonResponse(502, origin, errorBody("Failed to generate image from Gemini API", errs.DetailsOf(err)))
	default:
		return jsonResponse(500, origin, errorBody("Internal server error", errs.DetailsOf(err)))
	}
}

func errorBody(message, details string) map[string]string {
	body := map[string]string{"error": message}
	if details != "" {
		body["details"] = details
	}
	return body
}

func jsonResponse(statusCode int, origin string, body any) Response {
	encoded, err := json.Marshal(body)
	if err != nil {
		encoded = []byte(`{"error":"Internal server error"}`)
		statusCode = 500
	}
	return Response{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Access-Control-Allow-Origin": origin,
			"Content-Type":                "application/json",
		},
		Body: string(encoded),
	}
}

// header looks a header up case-insensitively.
func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
