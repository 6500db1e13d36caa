package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/repositories"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
)

const quotaErrorMessage = "service temporarily unavailable due to high demand"

type TryOnDomainService struct {
	imageService repositories.ImageEditService
	prompts      *PromptBuilder
	retryPolicy  *valueobjects.RetryPolicy
	wait         func(ctx context.Context, d time.Duration) error
}

func NewTryOnDomainService(
	imageService repositories.ImageEditService,
	prompts *PromptBuilder,
	retryPolicy *valueobjects.RetryPolicy,
) *TryOnDomainService {
	if retryPolicy == nil {
		retryPolicy = valueobjects.DefaultRetryPolicy()
	}

	return &TryOnDomainService{
		imageService: imageService,
		prompts:      prompts,
		retryPolicy:  retryPolicy,
		wait:         sleepContext,
	}
}

// ProcessTryOn runs one try-on: it calls the image model with the rendered
// instruction, retrying failed calls per the retry policy, and returns the
// first inline image of the answer.
func (s *TryOnDomainService) ProcessTryOn(ctx context.Context, request *entities.TryOnRequest) (*entities.TryOnResult, error) {
	if err := s.validateRequest(request); err != nil {
		return nil, err
	}

	prompt, err := s.prompts.Build(request)
	if err != nil {
		return nil, fmt.Errorf("prompt construction failed: %w", err)
	}

	parts, attempts, err := s.editWithRetry(ctx, request, prompt)
	if err != nil {
		return nil, err
	}

	image, modelText := extractFirstImage(parts)
	if image == nil {
		log.Warn().
			Str("requestID", string(request.ID())).
			Int("parts", len(parts)).
			Str("modelText", modelText).
			Msg("image model returned no inline image")
		return nil, errs.NoImageProduced(modelText)
	}

	result := entities.NewTryOnResult(request.ID(), image, modelText, attempts)
	log.Info().
		Str("requestID", string(request.ID())).
		Str("resultID", string(result.ID())).
		Int("attempts", attempts).
		Str("mimeType", image.MimeType()).
		Int("size", image.Size()).
		Msg("try-on image generated")

	return result, nil
}

func (s *TryOnDomainService) validateRequest(request *entities.TryOnRequest) error {
	if request == nil || request.SubjectImage() == nil {
		return errs.Validation("person image is required")
	}

	if !request.HasGarmentImage() && request.GarmentDescription() == "" {
		return errs.Validation("a garment image or garment description is required")
	}

	return nil
}

func (s *TryOnDomainService) editWithRetry(
	ctx context.Context,
	request *entities.TryOnRequest,
	prompt string,
) ([]entities.ContentPart, int, error) {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= s.retryPolicy.MaxAttempts(); attempt++ {
		if attempt > 1 {
			if err := s.wait(ctx, s.retryPolicy.Delay()); err != nil {
				return nil, attempts, errs.Upstream("image model request aborted before retry", lastErr)
			}
		}

		attempts = attempt
		parts, err := s.imageService.EditImage(ctx, prompt, request.Images())
		if err == nil {
			return parts, attempts, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, attempts, errs.Upstream("image model request canceled or timed out", err)
		}
		if !isRetryable(err) {
			return nil, attempts, err
		}

		log.Warn().
			Err(err).
			Str("requestID", string(request.ID())).
			Str("model", s.imageService.Model()).
			Int("attempt", attempt).
			Int("maxAttempts", s.retryPolicy.MaxAttempts()).
			Msg("image model request failed")
	}

	if isQuotaError(lastErr) {
		return nil, attempts, errs.Upstream(quotaErrorMessage, lastErr)
	}
	return nil, attempts, errs.Upstream(fmt.Sprintf("image model request failed after %d attempts", attempts), lastErr)
}

// extractFirstImage returns the first part carrying inline data together
// with the text of all text parts.
func extractFirstImage(parts []entities.ContentPart) (*valueobjects.ImageData, string) {
	var image *valueobjects.ImageData
	var texts []string

	for _, part := range parts {
		if part.Text != "" {
			texts = append(texts, strings.TrimSpace(part.Text))
		}
		if image == nil && part.HasInlineData() {
			image = valueobjects.NewGeneratedImage(part.Data, part.MimeType)
		}
	}

	return image, strings.Join(texts, "\n")
}

// isRetryable reports whether a failed call may be repeated. Configuration
// and validation problems do not go away on retry.
func isRetryable(err error) bool {
	switch errs.KindOf(err) {
	case errs.KindConfiguration, errs.KindValidation:
		return false
	}
	return true
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "resourceexhausted") ||
		strings.Contains(errStr, "resource_exhausted")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
