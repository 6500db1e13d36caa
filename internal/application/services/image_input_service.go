package services

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lakarijeprvovencani/tl-tryon/internal/application/usecases"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
)

// ImageInputService turns request payloads (multipart files, base64 strings)
// into use case inputs.
type ImageInputService struct {
	maxSize int64
}

func NewImageInputService() *ImageInputService {
	return &ImageInputService{
		maxSize: valueobjects.MaxImageSize,
	}
}

// ReadFormImage reads a required file field from a parsed multipart form.
func (s *ImageInputService) ReadFormImage(r *http.Request, field string) (*usecases.ImageInput, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, errs.Validation("%s image is required", field)
		}
		return nil, errs.Validation("failed to read %s image: %v", field, err)
	}
	defer file.Close()

	if header.Size > s.maxSize {
		return nil, errs.Validation("%s image size must be less than 10MB", field)
	}

	// Enforce the limit even when the part header lies about its size.
	data, err := io.ReadAll(io.LimitReader(file, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s image: %w", field, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, errs.Validation("%s image size must be less than 10MB", field)
	}

	return &usecases.ImageInput{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}

// DecodeBase64 decodes a base64 image, with or without a data URL prefix.
func (s *ImageInputService) DecodeBase64(encoded string, fallbackMime string) (*usecases.ImageInput, error) {
	data, mimeType, err := valueobjects.DecodeBase64Image(encoded, fallbackMime)
	if err != nil {
		return nil, err
	}

	return &usecases.ImageInput{
		Data:     data,
		MimeType: mimeType,
	}, nil
}

func (s *ImageInputService) FormString(r *http.Request, key, defaultValue string) string {
	value := strings.TrimSpace(r.FormValue(key))
	if value == "" {
		return defaultValue
	}
	return value
}
