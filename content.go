package archivekit

import (
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// textContentTypes are non-text/* MIME types decoded as text by default.
var textContentTypes = []string{"application/json"}

// Content is the result of reading an object into memory. Bytes always
// carries the raw payload; Text is set when the payload was decoded.
type Content struct {
	// Bytes is the raw object payload.
	Bytes []byte
	// Text is the decoded payload. Valid only when Decoded is true.
	Text string
	// Type is the object's MIME type with parameters stripped.
	Type string
	// Decoded reports whether Text was produced.
	Decoded bool
}

// ReadOptions controls content decoding for Read operations.
type ReadOptions struct {
	// Encoding names the character encoding used to decode textual
	// content. Empty means utf-8.
	Encoding string
	// Accept lists additional MIME types to treat as textual.
	Accept []string
	// Raw disables decoding entirely; the Content carries bytes only.
	Raw bool
}

// decodeContent wraps an object payload, decoding it to text when the
// content type is textual: the primary MIME class is "text", or the type
// is one of a small allow-list (JSON) or the caller-accepted types.
func decodeContent(data []byte, contentType string, opts ReadOptions) (*Content, error) {
	ctype := contentType
	if i := strings.Index(ctype, ";"); i >= 0 {
		ctype = ctype[:i]
	}
	ctype = strings.TrimSpace(ctype)

	content := &Content{Bytes: data, Type: ctype}
	if opts.Raw || !isTextual(ctype, opts.Accept) {
		return content, nil
	}

	name := opts.Encoding
	if name == "" {
		name = "utf-8"
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, newError(ErrCodeValidation, "unknown encoding %q", name)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, wrapError(ErrCodeValidation, err, "decoding content as %s", name)
	}

	content.Text = string(decoded)
	content.Decoded = true
	return content, nil
}

func isTextual(contentType string, accept []string) bool {
	if strings.HasPrefix(contentType, "text/") {
		return true
	}
	for _, t := range textContentTypes {
		if contentType == t {
			return true
		}
	}
	for _, t := range accept {
		if contentType == t {
			return true
		}
	}
	return false
}
