package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
)

type TryOnRequestID string

type TryOnRequest struct {
	id                 TryOnRequestID
	subjectImage       *valueobjects.ImageData
	garmentImage       *valueobjects.ImageData
	garmentDescription string
}

// NewTryOnRequest builds a request for one try-on. The garment is given as an
// image, a description, or both.
func NewTryOnRequest(
	subjectImage *valueobjects.ImageData,
	garmentImage *valueobjects.ImageData,
	garmentDescription string,
) (*TryOnRequest, error) {
	if subjectImage == nil {
		return nil, errs.Validation("person image is required")
	}

	garmentDescription = strings.TrimSpace(garmentDescription)
	if garmentImage == nil && garmentDescription == "" {
		return nil, errs.Validation("a garment image or garment description is required")
	}

	id := TryOnRequestID(fmt.Sprintf("req_%d", time.Now().UnixNano()))

	return &TryOnRequest{
		id:                 id,
		subjectImage:       subjectImage,
		garmentImage:       garmentImage,
		garmentDescription: garmentDescription,
	}, nil
}

func (r *TryOnRequest) ID() TryOnRequestID {
	return r.id
}

func (r *TryOnRequest) SubjectImage() *valueobjects.ImageData {
	return r.subjectImage
}

func (r *TryOnRequest) GarmentImage() *valueobjects.ImageData {
	return r.garmentImage
}

func (r *TryOnRequest) HasGarmentImage() bool {
	return r.garmentImage != nil
}

func (r *TryOnRequest) GarmentDescription() string {
	return r.garmentDescription
}

// Images returns the images in the order they are sent to the model: the
// subject first, then the garment when present.
func (r *TryOnRequest) Images() []*valueobjects.ImageData {
	images := []*valueobjects.ImageData{r.subjectImage}
	if r.garmentImage != nil {
		images = append(images, r.garmentImage)
	}
	return images
}
