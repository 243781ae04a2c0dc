package services

import (
	"errors"
)

var (
	// ErrInvalidDate is returned for malformed or out-of-range chart dates
	ErrInvalidDate = errors.New("invalid chart date")

	// ErrChartEmpty is returned when a chart page yields no entries
	ErrChartEmpty = errors.New("chart has no entries")

	// ErrPlaylistNotFound is returned when a playlist lookup finds nothing
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// ServiceError represents a failed call to an external service
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	URL       string
	Err       error
}

func (e *ServiceError) Error() string {
	msg := e.Service + " " + e.Operation + " failed"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.URL != "" {
		msg += " (URL: " + e.URL + ")"
	}
	if e.Err != nil {
		msg += " - " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
