package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doRequest(h *Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	router := h.InitRoutes()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTelemetry_MillisPathTriggersSafetyCycle(t *testing.T) {
	safety := &mockSafety{}
	h := newTestHandler(safety, nil, nil, nil)

	w := doRequest(h, http.MethodPost, "/data",
		[]byte(`{"path":"millis","device_id":"dev1","data":123456}`))

	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Connection"); got != "close" {
		t.Fatalf("expected Connection: close, got %q", got)
	}
	if safety.calls != 1 || safety.lastDev != "dev1" {
		t.Fatalf("expected one safety cycle for dev1, got calls=%d dev=%q", safety.calls, safety.lastDev)
	}
}

func TestTelemetry_OtherPathsAreAcknowledgedAndIgnored(t *testing.T) {
	safety := &mockSafety{}
	h := newTestHandler(safety, nil, nil, nil)

	for _, body := range []string{
		`{"path":"counter","device_id":"dev1","data":7}`,
		`{"path":"temp","device_id":"dev1"}`,
		`{"path":"millis"}`, // no device id
	} {
		w := doRequest(h, http.MethodPost, "/data", []byte(body))
		if w.Code != http.StatusOK {
			t.Fatalf("body %s: expected 200, got %d", body, w.Code)
		}
	}
	if safety.calls != 0 {
		t.Fatalf("expected no safety cycles, got %d", safety.calls)
	}
}

func TestTelemetry_EngineFailureStillAcknowledges(t *testing.T) {
	safety := &mockSafety{err: errors.New("cloud down")}
	h := newTestHandler(safety, nil, nil, nil)

	w := doRequest(h, http.MethodPost, "/data",
		[]byte(`{"path":"millis","device_id":"dev1"}`))

	// The cloud must not retry the push; failures are log-only.
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("expected 200 ok despite engine error, got %d %q", w.Code, w.Body.String())
	}
}

func TestTelemetry_MalformedBodyIsBadRequest(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	w := doRequest(h, http.MethodPost, "/data", []byte(`{not json`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(nil, nil, nil, nil)

	w := doRequest(h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
