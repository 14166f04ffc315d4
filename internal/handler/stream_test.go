package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"plantmonitor/internal/service"
)

func TestWriteSSEErrorPayloadShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	h := &StreamHandler{}
	h.writeSSEError(c, rec, errors.New("db gone"))

	body := rec.Body.String()
	if !strings.Contains(body, "event: error\n") {
		t.Fatalf("missing error event: %q", body)
	}
	dataLine := ""
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimPrefix(line, "data: ")
		}
	}
	if dataLine == "" {
		t.Fatalf("missing data line: %q", body)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(dataLine), &payload); err != nil {
		t.Fatalf("data is not JSON: %v", err)
	}
	// Clients read the message from the "error" key.
	if payload["error"] != "internal error" {
		t.Fatalf("payload: %v", payload)
	}
}

func TestWriteSSEErrorMapsUnknownFacility(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	h := &StreamHandler{}
	h.writeSSEError(c, rec, service.ErrFacilityNotFound)

	if !strings.Contains(rec.Body.String(), `"error":"facility not found"`) {
		t.Fatalf("body: %q", rec.Body.String())
	}
}

func TestWriteSSEErrorSilentOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	h := &StreamHandler{}
	h.writeSSEError(c, rec, context.Canceled)

	if rec.Body.Len() != 0 {
		t.Fatalf("cancelled stream must not emit an event: %q", rec.Body.String())
	}
}

func TestStreamErrorMessage(t *testing.T) {
	if got := streamErrorMessage(service.ErrFacilityNotFound); got != "facility not found" {
		t.Fatalf("got %q", got)
	}
	if got := streamErrorMessage(errors.New("boom")); got != "internal error" {
		t.Fatalf("got %q", got)
	}
}
