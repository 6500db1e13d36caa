package external

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/repositories"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
	"github.com/lakarijeprvovencani/tl-tryon/internal/metrics"
)

const DefaultImageModel = "gemini-2.5-flash-image-preview"

// GeminiImageService calls the Gemini image editing model through the shared
// GenAI client.
type GeminiImageService struct {
	pool  repositories.GenAIClientPool
	model string
}

func NewGeminiImageService(pool repositories.GenAIClientPool, model string) *GeminiImageService {
	if model == "" {
		model = DefaultImageModel
	}
	return &GeminiImageService{
		pool:  pool,
		model: model,
	}
}

func (s *GeminiImageService) Model() string {
	return s.model
}

func (s *GeminiImageService) EditImage(ctx context.Context, prompt string, images []*valueobjects.ImageData) ([]entities.ContentPart, error) {
	if len(images) == 0 {
		return nil, errs.Validation("image data is required")
	}

	client, err := s.pool.GetGenAIClient(ctx)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("model", s.model).
		Int("imageCount", len(images)).
		Int("promptLength", len(prompt)).
		Msg("Sending image edit request")

	requestParts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	// 画像は人物、衣服の順で追加する
	for _, image := range images {
		requestParts = append(requestParts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: image.MimeType(),
				Data:     image.Data(),
			},
		})
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(requestParts, genai.RoleUser),
	}

	// 2025/08/28時点で、「gemini-2.5-flash-image-preview」は複数候補を返せない。
	// MediaResolutionの指定も不可。
	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{})
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.ObserveUpstreamCall(s.model, outcome, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	parts := flattenParts(resp)

	log.Debug().
		Str("model", s.model).
		Int("candidatesCount", len(resp.Candidates)).
		Int("partsCount", len(parts)).
		Msg("Gemini API response")

	return parts, nil
}

// flattenParts lists the parts of every candidate in response order.
func flattenParts(resp *genai.GenerateContentResponse) []entities.ContentPart {
	if resp == nil {
		return nil
	}

	var parts []entities.ContentPart
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			switch {
			case part.InlineData != nil && len(part.InlineData.Data) > 0:
				parts = append(parts, entities.NewInlineDataPart(part.InlineData.Data, part.InlineData.MIMEType))
			case part.Text != "":
				parts = append(parts, entities.NewTextPart(part.Text))
			}
		}
	}
	return parts
}
