package valueobjects

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
)

type MimeType string

const (
	MimeTypePNG  MimeType = "image/png"
	MimeTypeJPEG MimeType = "image/jpeg"
)

// MaxImageSize is the upper bound for a single uploaded image (10MB).
const MaxImageSize = 10 * 1024 * 1024

type ImageData struct {
	data     []byte
	mimeType MimeType
}

// NewImageData validates an uploaded image. An empty mimeType is sniffed from
// the content; "image/jpg" is accepted as an alias of image/jpeg.
func NewImageData(data []byte, mimeType string) (*ImageData, error) {
	if len(data) == 0 {
		return nil, errs.Validation("image data cannot be empty")
	}

	if len(data) > MaxImageSize {
		return nil, errs.Validation("image size must be less than 10MB, got %d bytes", len(data))
	}

	mt, err := normalizeMimeType(data, mimeType)
	if err != nil {
		return nil, err
	}

	return &ImageData{
		data:     data,
		mimeType: mt,
	}, nil
}

// NewGeneratedImage wraps image bytes returned by the image model. Generated
// images are not subject to upload validation; the mime type defaults to PNG.
func NewGeneratedImage(data []byte, mimeType string) *ImageData {
	if mimeType == "" {
		mimeType = string(MimeTypePNG)
	}
	return &ImageData{
		data:     data,
		mimeType: MimeType(mimeType),
	}
}

func (i *ImageData) Data() []byte {
	return i.data
}

func (i *ImageData) MimeType() string {
	return string(i.mimeType)
}

func (i *ImageData) Size() int {
	return len(i.data)
}

func (i *ImageData) ToBase64() string {
	return base64.StdEncoding.EncodeToString(i.data)
}

// ToDataURL renders the image as a data URL, e.g. "data:image/png;base64,...".
func (i *ImageData) ToDataURL() string {
	return "data:" + string(i.mimeType) + ";base64," + i.ToBase64()
}

func normalizeMimeType(data []byte, declared string) (MimeType, error) {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}

	if declared == "" || declared == "application/octet-stream" {
		declared = mimetype.Detect(data).String()
	}

	switch declared {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return MimeTypeJPEG, nil
	case "image/png":
		return MimeTypePNG, nil
	default:
		return "", errs.Validation("only JPEG and PNG images are allowed, got %q", declared)
	}
}
