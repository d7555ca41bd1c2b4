package util

import "errors"

var (
	ErrUnitNotFound       = errors.New("unit not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrPathNotFound       = errors.New("path not found")
	ErrPreviewRestricted  = errors.New("unit is in preview")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidSubmission  = errors.New("invalid submission")
	ErrPermissionDenied   = errors.New("permission denied")
)

// IsNotFound reports whether err resolves to any unknown unit, module or path.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnitNotFound) || errors.Is(err, ErrModuleNotFound) || errors.Is(err, ErrPathNotFound)
}
