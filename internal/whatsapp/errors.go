package whatsapp

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is reported when the request did not finish within the client timeout.
	ErrTimeout = errors.New("request timeout")
	// ErrTransport covers every other network-level failure.
	ErrTransport = errors.New("transport failure")
)

const (
	unknownError    = "Unknown error"
	unknownCode     = "Unknown"
	unknownResponse = "Unknown response"
)

// ProviderError is a non-success answer from the Cloud API.
type ProviderError struct {
	Status  int
	Code    string
	Type    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("whatsapp api error [%s] %s (status=%d)", e.Code, e.Message, e.Status)
}
