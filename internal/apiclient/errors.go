package apiclient

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// errorFromBody turns a non-2xx response into a typed error. It understands the
// {"error":{code,message,details}} envelope and the flatter {"message","errors"} shape.
func errorFromBody(status int, body []byte) *pkgerrors.Error {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Errors  any             `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return pkgerrors.FromResponse(status, strings.TrimSpace(truncate(string(body), 256)))
	}

	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	}
	if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &envelope) == nil && envelope.Message != "" {
		out := pkgerrors.FromResponse(status, envelope.Message)
		if envelope.Details != nil {
			out.WithDetails(envelope.Details)
		}
		return out
	}

	message := payload.Message
	if message == "" && len(payload.Error) > 0 {
		_ = json.Unmarshal(payload.Error, &message)
	}
	out := pkgerrors.FromResponse(status, message)
	if payload.Errors != nil {
		out.WithDetails(payload.Errors)
	}
	return out
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
