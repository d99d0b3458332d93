package utils

import (
	"errors"
	"regexp"
	"unicode"
)

var (
	ErrTargetURLRequired = errors.New("error.url_required")
	ErrTargetURLScheme   = errors.New("error.url_scheme")
	ErrShortCodeRequired = errors.New("error.code_required")
	ErrShortCodeInvalid  = errors.New("error.code_invalid")
)

var (
	targetSchemePattern = regexp.MustCompile(`^https?://`)
	shortCodePattern    = regexp.MustCompile(`^[a-z0-9]+$`)
)

// ValidateTargetURL 校验目标 URL：非空且以 http:// 或 https:// 开头
func ValidateTargetURL(targetURL string) error {
	if targetURL == "" {
		return ErrTargetURLRequired
	}
	if !targetSchemePattern.MatchString(targetURL) {
		return ErrTargetURLScheme
	}
	return nil
}

// ValidateShortCode 校验 ShortCode 是否只包含小写字母和数字
func ValidateShortCode(shortCode string) error {
	if shortCode == "" {
		return ErrShortCodeRequired
	}
	if ContainsWhitespace(shortCode) || !shortCodePattern.MatchString(shortCode) {
		return ErrShortCodeInvalid
	}
	return nil
}

func ContainsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
