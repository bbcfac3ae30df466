package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateName validates a display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return errors.New("name is required")
	}

	if utf8.RuneCountInString(name) > 100 {
		return errors.New("name must not exceed 100 characters")
	}

	return nil
}

// ValidateFilmTitle validates a film title.
func ValidateFilmTitle(title string) error {
	title = strings.TrimSpace(title)

	if title == "" {
		return errors.New("title is required")
	}

	if utf8.RuneCountInString(title) > 200 {
		return errors.New("title must not exceed 200 characters")
	}

	return nil
}

// ValidateCommentBody validates a comment body.
func ValidateCommentBody(body string) error {
	body = strings.TrimSpace(body)

	if body == "" {
		return errors.New("comment body is required")
	}

	if utf8.RuneCountInString(body) > 2000 {
		return errors.New("comment must not exceed 2000 characters")
	}

	return nil
}
