package dataset

import "github.com/pkg/errors"

var (
	ErrNoColumns       = errors.New("dataset must have at least one column")
	ErrEmptyColumnName = errors.New("column name must not be empty")
	ErrUnknownType     = errors.New("unknown column type")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrColumnNotFound  = errors.New("column not found")
	ErrTypeMismatch    = errors.New("column type mismatch")
	ErrRowMismatch     = errors.New("row count mismatch")
	ErrRowOutOfRange   = errors.New("row index out of range")
	ErrNilDataset      = errors.New("dataset must be set")
)
