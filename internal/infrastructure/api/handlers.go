package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/lakarijeprvovencani/tl-tryon/internal/application/services"
	"github.com/lakarijeprvovencani/tl-tryon/internal/application/usecases"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
)

// 人物画像と衣服画像の2ファイル + フォーム項目分の余裕
const maxUploadSize = 2*valueobjects.MaxImageSize + 1<<20

type TryOnHandler struct {
	tryOnUseCase   *usecases.TryOnUseCase
	catalogUseCase *usecases.CatalogUseCase
	inputService   *services.ImageInputService
	model          string
	testImagePath  string
	testGarment    string
}

type TryOnHandlerOptions struct {
	// Model is reported by the diagnostic endpoint.
	Model string
	// TestPersonImage is the photo used by the diagnostic endpoint.
	TestPersonImage string
	// TestGarmentDescription is the garment the diagnostic endpoint asks for.
	TestGarmentDescription string
}

func NewTryOnHandler(
	tryOnUseCase *usecases.TryOnUseCase,
	catalogUseCase *usecases.CatalogUseCase,
	inputService *services.ImageInputService,
	opts TryOnHandlerOptions,
) *TryOnHandler {
	return &TryOnHandler{
		tryOnUseCase:   tryOnUseCase,
		catalogUseCase: catalogUseCase,
		inputService:   inputService,
		model:          opts.Model,
		testImagePath:  opts.TestPersonImage,
		testGarment:    opts.TestGarmentDescription,
	}
}

// HandleTryOn accepts a multipart person + garment upload and answers with
// the raw generated image.
func (h *TryOnHandler) HandleTryOn(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, r, http.StatusBadRequest, "File size must be less than 10MB", "")
			return
		}
		sendError(w, r, http.StatusBadRequest, "Both person and garment images are required", "")
		return
	}

	person, personErr := h.inputService.ReadFormImage(r, "person")
	garment, garmentErr := h.inputService.ReadFormImage(r, "garment")
	if personErr != nil || garmentErr != nil {
		err := errors.Join(personErr, garmentErr)
		logger.Warn().Err(err).Msg("Rejected try-on upload")
		sendError(w, r, http.StatusBadRequest, uploadErrorMessage(personErr, garmentErr), "")
		return
	}

	input := usecases.TryOnInput{
		PersonImage:        person,
		GarmentImage:       garment,
		GarmentDescription: h.inputService.FormString(r, "description", ""),
	}

	output, err := h.tryOnUseCase.Execute(r.Context(), input)
	if err != nil {
		logger.Error().Err(err).Str("kind", string(errs.KindOf(err))).Msg("Virtual try-on failed")

		switch errs.KindOf(err) {
		case errs.KindValidation:
			sendError(w, r, http.StatusBadRequest, err.Error(), "")
		case errs.KindNoImageProduced:
			sendError(w, r, http.StatusInternalServerError, "Failed to generate image from Gemini API", errs.DetailsOf(err))
		default:
			sendError(w, r, http.StatusInternalServerError, "Internal server error", errs.DetailsOf(err))
		}
		return
	}

	w.Header().Set("Content-Type", output.Image.Type)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(output.Image.Data); err != nil {
		logger.Error().Err(err).Msg("Failed to write image response")
	}
}

func uploadErrorMessage(personErr, garmentErr error) string {
	for _, err := range []error{personErr, garmentErr} {
		if err == nil {
			continue
		}
		var e *errs.Error
		if errors.As(err, &e) && e.Kind == errs.KindValidation {
			if strings.HasSuffix(e.Message, "image is required") {
				return "Both person and garment images are required"
			}
			return e.Message
		}
		return err.Error()
	}
	return "Both person and garment images are required"
}

type GenerateRequest struct {
	UserImageBase64 string `json:"userImageBase64"`
	ProductName     string `json:"productName"`
	ProductID       string `json:"productId"`
}

type GenerateResponse struct {
	Success bool         `json:"success"`
	Data    GenerateData `json:"data"`
}

type GenerateData struct {
	GeneratedImage string `json:"generatedImage"`
}

// HandleGenerate dresses the user's photo in a catalog product, named
// directly or by product ID.
func (h *TryOnHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(&req); err != nil {
		sendError(w, r, http.StatusBadRequest, "Invalid JSON data", err.Error())
		return
	}

	if req.UserImageBase64 == "" || (req.ProductName == "" && req.ProductID == "") {
		sendError(w, r, http.StatusBadRequest, "Product name and user image are required", "")
		return
	}

	description := req.ProductName
	if req.ProductID != "" {
		product, err := h.catalogUseCase.FindProduct(r.Context(), req.ProductID)
		if err != nil {
			logger.Warn().Err(err).Str("productId", req.ProductID).Msg("Product lookup failed")
			if errs.Is(err, errs.KindValidation) {
				sendError(w, r, http.StatusBadRequest, err.Error(), "")
				return
			}
			sendError(w, r, http.StatusInternalServerError, "Internal server error", errs.DetailsOf(err))
			return
		}
		description = product.GarmentDescription()
	}

	person, err := h.inputService.DecodeBase64(req.UserImageBase64, "")
	if err != nil {
		sendError(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}

	output, err := h.tryOnUseCase.Execute(r.Context(), usecases.TryOnInput{
		PersonImage:        person,
		GarmentDescription: description,
	})
	if err != nil {
		logger.Error().Err(err).Str("kind", string(errs.KindOf(err))).Msg("Generation failed")

		switch errs.KindOf(err) {
		case errs.KindValidation:
			sendError(w, r, http.StatusBadRequest, err.Error(), "")
		case errs.KindNoImageProduced:
			sendError(w, r, http.StatusInternalServerError, "Failed to generate image", errs.DetailsOf(err))
		default:
			sendError(w, r, http.StatusInternalServerError, "Internal server error", errs.DetailsOf(err))
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store, max-age=0")
	writeJSON(w, r, http.StatusOK, GenerateResponse{
		Success: true,
		Data: GenerateData{
			GeneratedImage: output.Image.DataURL(),
		},
	})
}

type TestAIResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Response  string `json:"response,omitempty"`
	Details   string `json:"details,omitempty"`
	ModelUsed string `json:"model_used,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// HandleTestAI runs the whole pipeline on the configured test photo.
func (h *TryOnHandler) HandleTestAI(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)
	start := time.Now()

	fail := func(err error) {
		logger.Error().Err(err).Msg("Image model self-test failed")
		writeJSON(w, r, http.StatusInternalServerError, TestAIResponse{
			Status:    "error",
			Message:   "Gemini API test failed.",
			Details:   errs.DetailsOf(err),
			ModelUsed: h.model,
			ElapsedMs: time.Since(start).Milliseconds(),
		})
	}

	if h.testImagePath == "" {
		fail(errs.Configuration("TEST_PERSON_IMAGE is not set"))
		return
	}

	data, err := os.ReadFile(h.testImagePath)
	if err != nil {
		fail(errs.Configuration("failed to read test image: %v", err))
		return
	}

	output, err := h.tryOnUseCase.Execute(r.Context(), usecases.TryOnInput{
		PersonImage:        &usecases.ImageInput{Data: data},
		GarmentDescription: h.testGarment,
	})
	switch {
	case errs.Is(err, errs.KindNoImageProduced):
		writeJSON(w, r, http.StatusOK, TestAIResponse{
			Status:    "partial_success",
			Message:   "API call successful but no image generated. This model may not support image generation.",
			Response:  errs.DetailsOf(err),
			ModelUsed: h.model,
			ElapsedMs: time.Since(start).Milliseconds(),
		})
	case err != nil:
		fail(err)
	default:
		writeJSON(w, r, http.StatusOK, TestAIResponse{
			Status:    "success",
			Message:   "Test successful! Image generated.",
			Response:  output.ModelText,
			ModelUsed: h.model,
			Attempts:  output.Attempts,
			ElapsedMs: time.Since(start).Milliseconds(),
		})
	}
}

func (h *TryOnHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
