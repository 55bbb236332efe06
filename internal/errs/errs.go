package errs

import "errors"

var (
	ErrInquiryNotFound    = errors.New("inquiry not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user id already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("account disabled")
	ErrForbidden          = errors.New("role not allowed")
	ErrFileNotFound       = errors.New("file not found")
	ErrInvalidFile        = errors.New("invalid file")
)
