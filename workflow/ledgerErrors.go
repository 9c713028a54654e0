package workflow

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindMalformedInput   ErrorKind = "MalformedInput"
	KindLookupMiss       ErrorKind = "LookupMiss"
	KindAmbiguousMapping ErrorKind = "AmbiguousMapping"
)

var (
	ErrMalformedInput   = errors.New("malformed input")
	ErrLookupMiss       = errors.New("lookup miss")
	ErrAmbiguousMapping = errors.New("ambiguous mapping")
)

const (
	StageLoad      = "load"
	StageNormalize = "normalize"
	StageReconcile = "reconcile"
	StagePrice     = "price"
	StageEconomics = "economics"
	StageMerge     = "merge"
)

// StageError is the diagnostic returned when a run aborts. Row is the 1-based
// data row (header excluded); zero means the error is not tied to a row.
type StageError struct {
	Kind   ErrorKind
	Stage  string
	Table  string
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *StageError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s at stage %s", e.Kind, e.Stage)
	if e.Table != "" {
		fmt.Fprintf(&sb, ", table %s", e.Table)
	}
	if e.Column != "" {
		fmt.Fprintf(&sb, ", column %q", e.Column)
	}
	if e.Row > 0 {
		fmt.Fprintf(&sb, ", row %d", e.Row)
	}
	if e.Value != "" {
		fmt.Fprintf(&sb, ", value %q", e.Value)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is lets callers match on the kind sentinels with errors.Is.
func (e *StageError) Is(target error) bool {
	switch target {
	case ErrMalformedInput:
		return e.Kind == KindMalformedInput
	case ErrLookupMiss:
		return e.Kind == KindLookupMiss
	case ErrAmbiguousMapping:
		return e.Kind == KindAmbiguousMapping
	}
	return false
}

func malformed(stage, table, column string, row int, value string, err error) *StageError {
	return &StageError{
		Kind:   KindMalformedInput,
		Stage:  stage,
		Table:  table,
		Column: column,
		Row:    row,
		Value:  value,
		Err:    err,
	}
}

// AsStageError unwraps err into a *StageError when there is one.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
