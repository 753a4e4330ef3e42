package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/trekkers/tour-client/internal/core/domain"
)

// errorEnvelope is the failure body of the tour service:
// {"status":"fail"|"error","message":"...","errors":{"field":"msg"}}
type errorEnvelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

// classify maps a status line and body to exactly one outcome. A nil result
// means Ok.
func classify(status int, body []byte) *domain.Failure {
	if status >= 200 && status < 300 {
		return nil
	}

	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	f := &domain.Failure{Status: status, Message: msg}
	switch {
	case status == http.StatusUnauthorized:
		f.Kind = domain.AuthFailure
	case status == http.StatusConflict:
		f.Kind = domain.ConflictFailure
	case status >= 400 && status < 500:
		f.Kind = domain.ValidationFailure
		f.Fields = env.Errors
	default:
		f.Kind = domain.ServerFailure
	}
	return f
}
