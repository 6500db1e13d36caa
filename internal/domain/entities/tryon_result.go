package entities

import (
	"fmt"
	"time"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
)

type TryOnResultID string

type TryOnResult struct {
	id        TryOnResultID
	requestID TryOnRequestID
	image     *valueobjects.ImageData
	modelText string
	attempts  int
}

func NewTryOnResult(requestID TryOnRequestID, image *valueobjects.ImageData, modelText string, attempts int) *TryOnResult {
	id := TryOnResultID(fmt.Sprintf("result_%d", time.Now().UnixNano()))

	return &TryOnResult{
		id:        id,
		requestID: requestID,
		image:     image,
		modelText: modelText,
		attempts:  attempts,
	}
}

func (r *TryOnResult) ID() TryOnResultID {
	return r.id
}

func (r *TryOnResult) RequestID() TryOnRequestID {
	return r.requestID
}

func (r *TryOnResult) Image() *valueobjects.ImageData {
	return r.image
}

// ModelText is any text the model returned next to the image.
func (r *TryOnResult) ModelText() string {
	return r.modelText
}

// Attempts is the number of upstream calls it took to produce the result.
func (r *TryOnResult) Attempts() int {
	return r.attempts
}
