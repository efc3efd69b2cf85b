package services

// Custom errors, mapped to HTTP codes in the handlers package.

// ValidationError reports malformed input per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// IllegalStateError means the operation is not valid given the current
// session or question state, e.g. changing the target after uploads began or
// acting on a locked question.
type IllegalStateError struct{ Message string }

func (e *IllegalStateError) Error() string { return e.Message }

// CapacityError means the numbering allocator would exceed the session
// target. Terminal: callers must not retry.
type CapacityError struct{ Message string }

func (e *CapacityError) Error() string { return e.Message }

// ConflictError is a concurrent-write conflict that survived the local retry
// budget. Callers may retry the whole operation.
type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

// StorageError means object storage was unreachable or rejected the upload.
// Raised before any database transaction begins.
type StorageError struct{ Message string }

func (e *StorageError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }
