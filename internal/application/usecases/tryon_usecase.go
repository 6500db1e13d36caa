package usecases

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/services"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
	"github.com/lakarijeprvovencani/tl-tryon/internal/metrics"
)

type TryOnUseCase struct {
	domainService *services.TryOnDomainService
	slots         *semaphore.Weighted
	timeout       time.Duration
}

type TryOnUseCaseOptions struct {
	// MaxConcurrent bounds simultaneous generations; extra requests wait.
	MaxConcurrent int64
	// Timeout bounds one invocation including retries. Zero disables it.
	Timeout time.Duration
}

func NewTryOnUseCase(domainService *services.TryOnDomainService, opts TryOnUseCaseOptions) *TryOnUseCase {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}

	return &TryOnUseCase{
		domainService: domainService,
		slots:         semaphore.NewWeighted(opts.MaxConcurrent),
		timeout:       opts.Timeout,
	}
}

type ImageInput struct {
	Data     []byte
	MimeType string
}

type TryOnInput struct {
	PersonImage        *ImageInput
	GarmentImage       *ImageInput
	GarmentDescription string
}

type TryOnOutput struct {
	RequestID entities.TryOnRequestID
	Image     ImageOutput
	ModelText string
	Attempts  int
}

type ImageOutput struct {
	Data []byte
	Type string
}

// DataURL renders the generated image as a data URL.
func (o ImageOutput) DataURL() string {
	return valueobjects.NewGeneratedImage(o.Data, o.Type).ToDataURL()
}

func (uc *TryOnUseCase) Execute(ctx context.Context, input TryOnInput) (output *TryOnOutput, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveTryOn(outcomeOf(err), time.Since(start))
	}()

	if input.PersonImage == nil {
		return nil, errs.Validation("person image is required")
	}

	personImage, err := valueobjects.NewImageData(input.PersonImage.Data, input.PersonImage.MimeType)
	if err != nil {
		return nil, fmt.Errorf("invalid person image: %w", err)
	}

	var garmentImage *valueobjects.ImageData
	if input.GarmentImage != nil {
		garmentImage, err = valueobjects.NewImageData(input.GarmentImage.Data, input.GarmentImage.MimeType)
		if err != nil {
			return nil, fmt.Errorf("invalid garment image: %w", err)
		}
	}

	request, err := entities.NewTryOnRequest(personImage, garmentImage, input.GarmentDescription)
	if err != nil {
		return nil, err
	}

	if err := uc.slots.Acquire(ctx, 1); err != nil {
		return nil, errs.Upstream("request canceled while waiting for a free generation slot", err)
	}
	defer uc.slots.Release(1)

	metrics.GenerationsInFlight.Inc()
	defer metrics.GenerationsInFlight.Dec()

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	result, err := uc.domainService.ProcessTryOn(ctx, request)
	if err != nil {
		return nil, err
	}

	return &TryOnOutput{
		RequestID: request.ID(),
		Image: ImageOutput{
			Data: result.Image().Data(),
			Type: result.Image().MimeType(),
		},
		ModelText: result.ModelText(),
		Attempts:  result.Attempts(),
	}, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return string(errs.KindOf(err))
}
