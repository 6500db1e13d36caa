package entities

// ContentPart is one part of the image model's answer, in response order.
// A part carries text, inline binary data, or neither.
type ContentPart struct {
	Text     string
	Data     []byte
	MimeType string
}

func NewTextPart(text string) ContentPart {
	return ContentPart{Text: text}
}

func NewInlineDataPart(data []byte, mimeType string) ContentPart {
	return ContentPart{Data: data, MimeType: mimeType}
}

func (p ContentPart) HasInlineData() bool {
	return len(p.Data) > 0
}
