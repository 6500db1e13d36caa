package valueobjects

import (
	"encoding/base64"
	"strings"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
)

// DecodeBase64Image decodes a base64 image that may carry a data URL prefix
// ("data:image/png;base64,"). The mime type from the prefix wins over
// fallbackMime; without either the caller gets an empty mime type.
func DecodeBase64Image(encoded string, fallbackMime string) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	mime := fallbackMime

	if strings.HasPrefix(encoded, "data:") {
		comma := strings.Index(encoded, ",")
		if comma < 0 {
			return nil, "", errs.Validation("malformed data URL")
		}
		header := encoded[len("data:"):comma]
		encoded = encoded[comma+1:]

		if !strings.HasSuffix(header, ";base64") {
			return nil, "", errs.Validation("data URL must be base64 encoded")
		}
		if m := strings.TrimSuffix(header, ";base64"); m != "" {
			mime = m
		}
	}

	if encoded == "" {
		return nil, "", errs.Validation("image data cannot be empty")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Browsers and some clients drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, "", errs.Validation("image is not valid base64")
		}
	}

	return data, mime, nil
}
