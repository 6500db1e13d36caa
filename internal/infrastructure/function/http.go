package function

import (
	"encoding/base64"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/valueobjects"
)

// base64 で2枚分 + JSON の余裕
const maxEventBodySize = 3*valueobjects.MaxImageSize + 1<<20

// ServeHTTP exposes the function over plain HTTP by translating the request
// into an Event and the Response back.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBodySize))
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Failed to read function body")
		writeResponse(w, r, jsonResponse(http.StatusBadRequest, "*", map[string]string{"error": "Invalid JSON data"}))
		return
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	resp := h.Handle(r.Context(), Event{
		HTTPMethod: r.Method,
		Headers:    headers,
		Body:       string(body),
	})
	writeResponse(w, r, resp)
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("Function returned invalid base64 body")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body = decoded
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to write function response")
	}
}
