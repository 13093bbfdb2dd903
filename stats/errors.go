package stats

import "errors"

var (
	// ErrInsufficientData is returned when a series is too short for a test.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDimension is returned when regressors and responses disagree in shape.
	ErrDimension = errors.New("dimension mismatch")
	// ErrSingular is returned when a regression's normal matrix cannot be inverted.
	ErrSingular = errors.New("singular design matrix")
	// ErrConstant is returned when a series has zero variance.
	ErrConstant = errors.New("series is constant")
)
