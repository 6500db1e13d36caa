package repositories

import (
	"context"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
)

// 画像編集モデル (Gemini image editing)
type ImageEditService interface {
	// EditImage sends the instruction and the images in one request and
	// returns the content parts of the answer in order.
	EditImage(ctx context.Context, prompt string, images []*valueobjects.ImageData) ([]entities.ContentPart, error)

	// Model returns the model identifier the service calls.
	Model() string
}
