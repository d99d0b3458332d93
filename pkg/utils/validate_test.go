package utils

import (
	"errors"
	"testing"
)

func TestValidateTargetURL(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"https://example.com/video.mp4", nil},
		{"http://example.com", nil},
		{"http://", nil},
		{"", ErrTargetURLRequired},
		{"notaurl", ErrTargetURLScheme},
		{"ftp://example.com/file", ErrTargetURLScheme},
		{"HTTPS://example.com", ErrTargetURLScheme},
		{" https://example.com", ErrTargetURLScheme},
		{"javascript:alert(1)", ErrTargetURLScheme},
	}

	for _, tt := range tests {
		if got := ValidateTargetURL(tt.input); !errors.Is(got, tt.want) {
			t.Errorf("ValidateTargetURL(%q) = %v; expected %v", tt.input, got, tt.want)
		}
	}
}

func TestValidateShortCode(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"abc123", nil},
		{"zzzzzz", nil},
		{"", ErrShortCodeRequired},
		{"ABC123", ErrShortCodeInvalid},
		{"ab c12", ErrShortCodeInvalid},
		{"ab/c12", ErrShortCodeInvalid},
	}

	for _, tt := range tests {
		if got := ValidateShortCode(tt.input); !errors.Is(got, tt.want) {
			t.Errorf("ValidateShortCode(%q) = %v; expected %v", tt.input, got, tt.want)
		}
	}
}
