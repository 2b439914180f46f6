package utils

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxHouseholdNameLength = 40
	MaxIdeaLength          = 500
)

// ValidateHouseholdName trims name and checks it is 1-40 characters.
func ValidateHouseholdName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", &ValidationError{Field: "name", Message: "Household name is required"}
	}

	if utf8.RuneCountInString(name) > MaxHouseholdNameLength {
		return "", &ValidationError{Field: "name", Message: "Household name must be at most 40 characters"}
	}

	return name, nil
}

// ValidateIdea checks the free-text prompt for a recipe draft.
func ValidateIdea(idea string) (string, error) {
	idea = strings.TrimSpace(idea)

	if idea == "" {
		return "", &ValidationError{Field: "idea", Message: "Recipe idea is required"}
	}

	if utf8.RuneCountInString(idea) > MaxIdeaLength {
		return "", &ValidationError{Field: "idea", Message: "Recipe idea must be at most 500 characters"}
	}

	return idea, nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
