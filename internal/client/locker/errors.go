package locker

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/safelocker/internal/common"
)

// Batch limits.
const (
	MaxFiles            = 30
	MaxBatchBytes int64 = 1 << 30
)

var (
	ErrTooManyFiles  = common.Invalid("You can select a maximum of 30 files.")
	ErrBatchTooLarge = common.Invalid("Total file size cannot exceed 1 GB.")
	ErrNegativeSize  = common.Invalid("File size cannot be negative.")

	// ErrBatchFailed is joined with the per-file errors when at least one
	// file of a batch was not both stored and recorded.
	ErrBatchFailed = errors.New("upload failed")

	errIsDir = errors.New("is a directory")
)

// FileError describes why one file of a batch failed.
type FileError struct {
	Index int
	Name  string
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Name, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ValidateBatch checks the batch limits. It never touches the network.
func ValidateBatch(files []File) error {
	if len(files) > MaxFiles {
		return ErrTooManyFiles
	}
	var total int64
	for _, f := range files {
		if f.Size < 0 {
			return fmt.Errorf("%s: %w", f.Name, ErrNegativeSize)
		}
		total += f.Size
		if total > MaxBatchBytes {
			return ErrBatchTooLarge
		}
	}
	return nil
}
