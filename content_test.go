package archivekit

import "testing"

func TestDecodeContentText(t *testing.T) {
	content, err := decodeContent([]byte("hello"), "text/plain; charset=utf-8", ReadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !content.Decoded {
		t.Fatal("expected text/plain content to be decoded")
	}
	if content.Text != "hello" {
		t.Errorf("expected %q, got %q", "hello", content.Text)
	}
	if content.Type != "text/plain" {
		t.Errorf("expected parameters stripped from type, got %q", content.Type)
	}
	if string(content.Bytes) != "hello" {
		t.Error("raw bytes should be carried alongside the text")
	}
}

func TestDecodeContentJSON(t *testing.T) {
	content, err := decodeContent([]byte(`{"ok":true}`), "application/json", ReadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !content.Decoded || content.Text != `{"ok":true}` {
		t.Errorf("expected JSON decoded as text, got %+v", content)
	}
}

func TestDecodeContentBinary(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02}
	content, err := decodeContent(data, "application/octet-stream", ReadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Decoded {
		t.Error("binary content should not be decoded")
	}
	if content.Text != "" {
		t.Errorf("expected empty text, got %q", content.Text)
	}
	if len(content.Bytes) != 3 {
		t.Errorf("expected 3 raw bytes, got %d", len(content.Bytes))
	}
}

func TestDecodeContentAccept(t *testing.T) {
	opts := ReadOptions{Accept: []string{"application/octet-stream"}}
	content, err := decodeContent([]byte("id name"), "application/octet-stream", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !content.Decoded || content.Text != "id name" {
		t.Errorf("accepted type should decode, got %+v", content)
	}
}

func TestDecodeContentRaw(t *testing.T) {
	content, err := decodeContent([]byte("hello"), "text/plain", ReadOptions{Raw: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Decoded {
		t.Error("raw mode must not decode")
	}
}

func TestDecodeContentEncoding(t *testing.T) {
	// 0xE9 is é in latin-1.
	content, err := decodeContent([]byte{0x63, 0x61, 0x66, 0xE9}, "text/plain", ReadOptions{Encoding: "latin1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Text != "café" {
		t.Errorf("expected %q, got %q", "café", content.Text)
	}
}

func TestDecodeContentUnknownEncoding(t *testing.T) {
	_, err := decodeContent([]byte("x"), "text/plain", ReadOptions{Encoding: "no-such-encoding"})
	if err == nil {
		t.Fatal("expected an error for an unknown encoding")
	}
	if !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}
