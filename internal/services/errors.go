package services

import "errors"

var (
	// ErrHouseholdNotFound is returned when no household matches an id or invite code.
	ErrHouseholdNotFound = errors.New("household not found")
	// ErrInvalidBucket is returned for an unknown bucket or a payload that does not fit it.
	ErrInvalidBucket = errors.New("invalid bucket")
	// ErrInvalidToken is returned for a missing, expired or foreign membership token.
	ErrInvalidToken = errors.New("invalid membership token")
	// ErrGeneratorUnavailable is returned when no recipe provider credential is configured.
	ErrGeneratorUnavailable = errors.New("recipe generator not configured")
	// ErrInvalidUpload is returned for an upload that is too large or not an image.
	ErrInvalidUpload = errors.New("invalid upload")
)
