package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// Kind is the failure class of a remote call.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindUnauthorized
	KindNotFound
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not found"
	case KindBadRequest:
		return "bad request"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that does not succeed.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%d %s", e.Status, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies err. Errors that did not come from a Client are
// transport failures when they look like network or context errors and
// unknown otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return KindTransport
	}

	return KindUnknown
}

// MessageOf returns the server supplied message for err, falling back to the
// HTTP status text and then the error text.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if text := http.StatusText(apiErr.Status); text != "" {
			return text
		}
	}
	return err.Error()
}

// ServerMessage returns only a server supplied message, or "".
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func statusKind(code int) Kind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusConflict:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

const maxErrorBody = 64 << 10

func newStatusError(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return &Error{
		Kind:    statusKind(resp.StatusCode),
		Status:  resp.StatusCode,
		Message: errorMessage(body),
	}
}

// errorMessage extracts the server message from either a JSON error body
// ({"message": "..."}) or a plain text body.
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
		return ""
	}

	return text
}
