package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("not found")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

// InfoKind tells where the text of an ErrorInfo came from.
type InfoKind int

const (
	// InfoNone: the response had no usable body.
	InfoNone InfoKind = iota
	// InfoStructuredError: JSON body with an "error" field.
	InfoStructuredError
	// InfoStructuredMessage: JSON body with a "message" field.
	InfoStructuredMessage
	// InfoPlain: non-JSON body text.
	InfoPlain
	// InfoNetwork: no response at all; Text is the transport error.
	InfoNetwork
)

// ErrorInfo is the normalised description of a failed backend call.
type ErrorInfo struct {
	Kind InfoKind
	Text string
}

// Structured reports whether the backend itself supplied the text.
func (i ErrorInfo) Structured() bool {
	return i.Kind == InfoStructuredError || i.Kind == InfoStructuredMessage
}

const maxPlainInfo = 200

func infoFromBody(raw []byte) ErrorInfo {
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return ErrorInfo{}
	}

	var fields struct {
		Error   any `json:"error"`
		Message any `json:"message"`
	}
	if err := json.Unmarshal(raw, &fields); err == nil {
		if s, ok := fields.Error.(string); ok && strings.TrimSpace(s) != "" {
			return ErrorInfo{Kind: InfoStructuredError, Text: s}
		}
		if s, ok := fields.Message.(string); ok && strings.TrimSpace(s) != "" {
			return ErrorInfo{Kind: InfoStructuredMessage, Text: s}
		}
		return ErrorInfo{}
	}

	if len(body) > maxPlainInfo {
		body = body[:maxPlainInfo]
	}
	return ErrorInfo{Kind: InfoPlain, Text: body}
}

// APIError is a failed backend call: a non-2xx response (StatusCode set) or
// a transport failure (StatusCode 0, Err set).
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Info       ErrorInfo
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Info.Text != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Info.Text)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *APIError) sentinel() error {
	switch {
	case e.StatusCode == 0:
		return ErrUnavailable
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusBadGateway, e.StatusCode == http.StatusServiceUnavailable, e.StatusCode == http.StatusGatewayTimeout:
		return ErrUnavailable
	}
	return nil
}

// Describe returns the text to show the user for err: the backend "error"
// field, else the backend "message" field, else the error's own message,
// else fallback.
func Describe(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Info.Structured() {
		return apiErr.Info.Text
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
