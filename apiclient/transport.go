package apiclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	maxInspectBytes = 64 << 10
)

// observingTransport sits under every request the client makes and turns
// maintenance, unauthorized and forbidden responses into typed events.
type observingTransport struct {
	base      http.RoundTripper
	observers *observerSet
	now       func() time.Time
}

func (t *observingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(requestIDHeader) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, uuid.NewString())
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	token := bearerToken(req.Header.Get("Authorization"))
	event := Event{Token: token, Path: req.URL.Path, StatusCode: resp.StatusCode, At: t.now()}

	switch resp.StatusCode {
	case http.StatusServiceUnavailable:
		if maintenanceFlagged(resp) {
			event.Kind = MaintenanceDetected
		}
	case http.StatusUnauthorized:
		if token != "" {
			event.Kind = UnauthorizedDetected
		}
	case http.StatusForbidden:
		if token != "" {
			event.Kind = ForbiddenDetected
		}
	}

	if event.Kind != 0 {
		t.observers.emit(event)
	}
	return resp, nil
}

// maintenanceFlagged peeks at the body and puts it back for the caller.
func maintenanceFlagged(resp *http.Response) bool {
	if resp.Body == nil {
		return false
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInspectBytes))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return false
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return false
	}
	return body.maintenance()
}

func bearerToken(value string) string {
	const bearer = "bearer "
	if len(value) <= len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(value[len(bearer):])
}
