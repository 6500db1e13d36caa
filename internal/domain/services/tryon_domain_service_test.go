package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
)

type editResponse struct {
	parts []entities.ContentPart
	err   error
}

type mockImageService struct {
	responses []editResponse
	calls     int
	callTimes []time.Time
	prompts   []string
	images    [][]*valueobjects.ImageData
}

func (m *mockImageService) EditImage(ctx context.Context, prompt string, images []*valueobjects.ImageData) ([]entities.ContentPart, error) {
	m.calls++
	m.callTimes = append(m.callTimes, time.Now())
	m.prompts = append(m.prompts, prompt)
	m.images = append(m.images, images)

	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx].parts, m.responses[idx].err
}

func (m *mockImageService) Model() string {
	return "gemini-test"
}

func createTestImageData(t *testing.T) *valueobjects.ImageData {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	imageData, err := valueobjects.NewImageData(buf.Bytes(), "image/jpeg")
	require.NoError(t, err)
	return imageData
}

func newTestService(t *testing.T, mock *mockImageService, policy *valueobjects.RetryPolicy) (*TryOnDomainService, *[]time.Duration) {
	prompts, err := NewPromptBuilder(DefaultPromptTemplates())
	require.NoError(t, err)

	service := NewTryOnDomainService(mock, prompts, policy)
	var waits []time.Duration
	service.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return service, &waits
}

func imagePart(data string) entities.ContentPart {
	return entities.NewInlineDataPart([]byte(data), "image/png")
}

func TestTryOnDomainService_ProcessTryOn(t *testing.T) {
	subject := createTestImageData(t)
	garment := createTestImageData(t)

	request, err := entities.NewTryOnRequest(subject, garment, "")
	require.NoError(t, err)

	t.Run("successful processing", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{
			{parts: []entities.ContentPart{imagePart("png-bytes")}},
		}}
		service, waits := newTestService(t, mock, nil)

		result, err := service.ProcessTryOn(context.Background(), request)

		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), result.Image().Data())
		assert.Equal(t, "image/png", result.Image().MimeType())
		assert.Equal(t, 1, result.Attempts())
		assert.Equal(t, request.ID(), result.RequestID())
		assert.NotEmpty(t, result.ID())
		assert.Equal(t, 1, mock.calls)
		assert.Empty(t, *waits)
		require.Len(t, mock.images[0], 2)
		assert.Same(t, subject, mock.images[0][0])
		assert.Same(t, garment, mock.images[0][1])
	})

	t.Run("fails once then succeeds", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{
			{err: errors.New("connection reset by peer")},
			{parts: []entities.ContentPart{imagePart("second-try")}},
		}}
		service, waits := newTestService(t, mock, nil)

		result, err := service.ProcessTryOn(context.Background(), request)

		require.NoError(t, err)
		assert.Equal(t, []byte("second-try"), result.Image().Data())
		assert.Equal(t, 2, mock.calls)
		assert.Equal(t, 2, result.Attempts())
		assert.Equal(t, []time.Duration{time.Second}, *waits)
	})

	t.Run("fails on both attempts", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{
			{err: errors.New("503 service unavailable")},
		}}
		service, waits := newTestService(t, mock, nil)

		result, err := service.ProcessTryOn(context.Background(), request)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errs.Is(err, errs.KindUpstream))
		assert.Equal(t, 2, mock.calls)
		assert.Equal(t, []time.Duration{time.Second}, *waits)
	})

	t.Run("quota error handling", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{
			{err: errors.New("Error 429, Status: RESOURCE_EXHAUSTED")},
		}}
		service, _ := newTestService(t, mock, nil)

		_, err := service.ProcessTryOn(context.Background(), request)

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindUpstream))
		assert.Contains(t, err.Error(), "service temporarily unavailable due to high demand")
	})

	t.Run("no image generated is not retried", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{
			{parts: []entities.ContentPart{entities.NewTextPart("I can't help with that image.")}},
		}}
		service, waits := newTestService(t, mock, nil)

		result, err := service.ProcessTryOn(context.Background(), request)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errs.Is(err, errs.KindNoImageProduced))
		assert.Equal(t, "I can't help with that image.", errs.DetailsOf(err))
		assert.Equal(t, 1, mock.calls)
		assert.Empty(t, *waits)
	})

	t.Run("empty response is no image", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{{parts: nil}}}
		service, _ := newTestService(t, mock, nil)

		_, err := service.ProcessTryOn(context.Background(), request)

		assert.True(t, errs.Is(err, errs.KindNoImageProduced))
		assert.Equal(t, 1, mock.calls)
	})

	t.Run("first inline image wins", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{
			{parts: []entities.ContentPart{
				entities.NewTextPart("Here is the edited photo."),
				{Data: []byte("first"), MimeType: ""},
				imagePart("second"),
			}},
		}}
		service, _ := newTestService(t, mock, nil)

		result, err := service.ProcessTryOn(context.Background(), request)

		require.NoError(t, err)
		assert.Equal(t, []byte("first"), result.Image().Data())
		assert.Equal(t, "image/png", result.Image().MimeType())
		assert.Equal(t, "Here is the edited photo.", result.ModelText())
	})

	t.Run("configuration error is not retried", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{
			{err: errs.Configuration("GEMINI_API_KEY is not set")},
		}}
		service, _ := newTestService(t, mock, nil)

		_, err := service.ProcessTryOn(context.Background(), request)

		assert.True(t, errs.Is(err, errs.KindConfiguration))
		assert.Equal(t, 1, mock.calls)
	})

	t.Run("canceled context stops before retry", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{
			{err: errors.New("connection refused")},
		}}
		service, _ := newTestService(t, mock, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := service.ProcessTryOn(ctx, request)

		assert.True(t, errs.Is(err, errs.KindUpstream))
		assert.Equal(t, 1, mock.calls)
	})

	t.Run("retry policy bounds attempts", func(t *testing.T) {
		mock := &mockImageService{responses: []editResponse{
			{err: errors.New("timeout")},
		}}
		policy, err := valueobjects.NewRetryPolicy(3, 250*time.Millisecond)
		require.NoError(t, err)
		service, waits := newTestService(t, mock, policy)

		_, err = service.ProcessTryOn(context.Background(), request)

		assert.True(t, errs.Is(err, errs.KindUpstream))
		assert.Equal(t, 3, mock.calls)
		assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, *waits)
	})
}

func TestTryOnDomainService_RetryWaitsBetweenCalls(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the real retry delay")
	}

	mock := &mockImageService{responses: []editResponse{
		{err: errors.New("upstream unavailable")},
	}}
	prompts, err := NewPromptBuilder(DefaultPromptTemplates())
	require.NoError(t, err)
	service := NewTryOnDomainService(mock, prompts, valueobjects.DefaultRetryPolicy())

	request, err := entities.NewTryOnRequest(createTestImageData(t), nil, "black plush tracksuit")
	require.NoError(t, err)

	_, err = service.ProcessTryOn(context.Background(), request)

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindUpstream))
	require.Len(t, mock.callTimes, 2)
	gap := mock.callTimes[1].Sub(mock.callTimes[0])
	assert.GreaterOrEqual(t, gap, time.Second)
	assert.Less(t, gap, 2*time.Second)
}

func TestTryOnDomainService_RejectsInvalidRequest(t *testing.T) {
	mock := &mockImageService{responses: []editResponse{{}}}
	service, _ := newTestService(t, mock, nil)

	_, err := service.ProcessTryOn(context.Background(), nil)

	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Equal(t, 0, mock.calls)
}
