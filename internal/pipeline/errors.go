package pipeline

import (
	"errors"
	"fmt"
)

// Stages at which a single recording can fail
const (
	StageSave       = "save"
	StageTranscribe = "transcribe"
	StageDecode     = "decode"
	StageAnalyze    = "analyze"
	StageRender     = "render"
)

var (
	// ErrTooFewRecordings is returned when fewer than two recordings of a
	// comparison could be analyzed
	ErrTooFewRecordings = errors.New("need at least 2 valid files for comparison")

	// ErrEmptyFilename is returned for an upload without a filename
	ErrEmptyFilename = errors.New("no selected file")
)

// FileError is a failure confined to one recording
type FileError struct {
	Filename string
	Stage    string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Filename, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func fileError(filename, stage string, err error) error {
	return &FileError{Filename: filename, Stage: stage, Err: err}
}
