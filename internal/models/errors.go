package models

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrMemberProfileNotFound = errors.New("member profile not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidRequest        = errors.New("invalid request")
)

// ErrorForCode maps an envelope error code back to its sentinel. Unknown codes
// return nil.
func ErrorForCode(code string) error {
	switch code {
	case CodeNotFound:
		return ErrNotFound
	case CodeMemberProfileNotFound:
		return ErrMemberProfileNotFound
	case CodeUnauthorized:
		return ErrUnauthorized
	case CodeForbidden:
		return ErrForbidden
	case CodeInvalidRequest:
		return ErrInvalidRequest
	}
	return nil
}
