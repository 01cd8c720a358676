package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"pathlight-web/pkg/errors"
)

// Synthetic statuses for calls that never produced an HTTP response
const (
	StatusNetworkError = 0
	StatusTimeout      = -1
)

// Envelope is the uniform result of every backend call
type Envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// OK reports a 2xx response whose body parsed
func (e *Envelope) OK() bool {
	return e.Status >= 200 && e.Status < 300 && e.Error == ""
}

// Unauthorized reports a 401 from the backend
func (e *Envelope) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Payload returns the body with any info/Info wrapper removed.
// Precedence: "info", then "Info", then the raw body.
func (e *Envelope) Payload() json.RawMessage {
	if len(e.Data) == 0 {
		return nil
	}
	trimmed := bytes.TrimSpace(e.Data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return e.Data
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return e.Data
	}
	for _, key := range []string{"info", "Info"} {
		if inner, ok := wrapper[key]; ok && len(inner) > 0 && string(inner) != "null" {
			return inner
		}
	}
	return e.Data
}

// Decode unmarshals the unwrapped payload into v
func (e *Envelope) Decode(v interface{}) error {
	payload := e.Payload()
	if len(payload) == 0 {
		return fmt.Errorf("envelope has no data (status %d)", e.Status)
	}
	return json.Unmarshal(payload, v)
}

// Kind classifies a failed envelope
func (e *Envelope) Kind() errors.ErrorType {
	switch {
	case e.Status == StatusNetworkError:
		return errors.ErrorTypeTransport
	case e.Status == StatusTimeout:
		return errors.ErrorTypeTimeout
	case e.Status >= 200 && e.Status < 300 && e.Error != "":
		return errors.ErrorTypeMalformed
	default:
		return errors.TypeForStatus(e.Status)
	}
}

// AppError converts a failed envelope for handler-level reporting. Returns
// nil for successful envelopes.
func (e *Envelope) AppError(call CallContext) *errors.AppError {
	if e.OK() {
		return nil
	}
	msg := UserMessage(call, e)
	switch e.Kind() {
	case errors.ErrorTypeTransport:
		return errors.NewTransportError(msg, nil)
	case errors.ErrorTypeTimeout:
		return errors.NewTimeoutError(msg, nil)
	case errors.ErrorTypeMalformed:
		return errors.NewMalformedError(msg, nil)
	case errors.ErrorTypeAuthentication:
		return errors.NewAuthenticationError(msg)
	case errors.ErrorTypeAuthorization:
		return errors.NewAuthorizationError(msg)
	case errors.ErrorTypeNotFound:
		return errors.NewNotFoundError(msg)
	case errors.ErrorTypeValidation:
		return errors.NewValidationError(msg, nil)
	case errors.ErrorTypeRateLimit:
		return errors.NewRateLimitError(msg)
	default:
		return &errors.AppError{Type: e.Kind(), Message: msg, StatusCode: e.Status}
	}
}

func networkEnvelope(err error) *Envelope {
	return &Envelope{Status: StatusNetworkError, Error: msgNetwork + ": " + err.Error()}
}

func timeoutEnvelope() *Envelope {
	return &Envelope{Status: StatusTimeout, Error: msgTimeout}
}
