package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrQuotaExceeded
	ErrInternal
	ErrInvalidFile
	ErrFileTooLarge
	ErrImageTooLarge
	ErrProcessingFailed
	ErrAIUnavailable
)
