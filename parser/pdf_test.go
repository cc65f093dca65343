package parser

import (
	"context"
	"testing"
)

func TestPDFParseRejectsEmptyContent(t *testing.T) {
	if _, err := (PDF{}).Parse(context.Background(), "empty.pdf", nil); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestPDFParseRejectsInvalidContent(t *testing.T) {
	if _, err := (PDF{}).Parse(context.Background(), "bad.pdf", []byte("not a pdf")); err == nil {
		t.Error("expected error for invalid pdf content")
	}
}
