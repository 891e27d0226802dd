package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input rejected at an entry point.
	ErrValidation = errors.New("validation error")
	// ErrStageOperation marks a failed or timed-out collaborator call.
	ErrStageOperation = errors.New("stage operation error")
	// ErrChaining marks stage output that could not be converted into the
	// next stage's input even though the collaborator call succeeded.
	ErrChaining = errors.New("chaining error")
	// ErrPersistence marks a durable store read/write failure.
	ErrPersistence = errors.New("persistence error")
	// ErrConfiguration marks missing or invalid collaborator configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a lookup for an unknown project or job.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks an exceeded stage deadline.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Message extracts the human-readable portion of a stage error for display on
// jobs and projects, stripping the sentinel prefix when present.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	for _, marker := range []error{
		ErrValidation, ErrStageOperation, ErrChaining, ErrPersistence,
		ErrConfiguration, ErrNotFound, ErrTimeout, ErrTransient,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(msg, prefix))
		}
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
