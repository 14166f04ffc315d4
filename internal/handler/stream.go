package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"plantmonitor/internal/broadcast"
	"plantmonitor/internal/service"
)

// StreamHandler pushes facility summaries to dashboards: SSE for browsers
// behind plain HTTP, a websocket variant for clients that want one. Both
// park on the broadcast hub and re-read the summary on every pulse, with a
// keep-alive when nothing changed within the await timeout.
type StreamHandler struct {
	Dashboard *service.DashboardService
	Hub       *broadcast.Hub
	Logger    *zap.Logger

	AwaitTimeout time.Duration
	SummaryHours int
}

func (h *StreamHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/stream/:facility_id", h.streamSSE)
	r.GET("/api/v1/stream/:facility_id/ws", h.streamWS)
}

func (h *StreamHandler) summaryHours() int {
	if h.SummaryHours > 0 {
		return h.SummaryHours
	}
	return 24
}

func (h *StreamHandler) streamSSE(c *gin.Context) {
	if h.Dashboard == nil || h.Hub == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	facilityID := c.Param("facility_id")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		Error(c, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	ctx := c.Request.Context()

	// Resolve the first snapshot before committing to the stream so an
	// unknown facility still gets a plain 404.
	initial, err := h.Dashboard.Summary(ctx, facilityID, h.summaryHours())
	if err != nil {
		if errors.Is(err, service.ErrFacilityNotFound) {
			Error(c, http.StatusNotFound, "facility not found", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	if err := h.emitSSESummary(c, flusher, initial); err != nil {
		h.writeSSEError(c, flusher, err)
		return
	}

	for {
		fired, err := h.Hub.AwaitSignal(ctx, facilityID, h.AwaitTimeout)
		if err != nil {
			// Client went away or the server is shutting down.
			return
		}
		if !fired {
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
			continue
		}
		if err := h.writeSSESummary(c, flusher, facilityID); err != nil {
			h.writeSSEError(c, flusher, err)
			return
		}
	}
}

func (h *StreamHandler) writeSSESummary(c *gin.Context, flusher http.Flusher, facilityID string) error {
	summary, err := h.Dashboard.Summary(c.Request.Context(), facilityID, h.summaryHours())
	if err != nil {
		return err
	}
	return h.emitSSESummary(c, flusher, summary)
}

func (h *StreamHandler) emitSSESummary(c *gin.Context, flusher http.Flusher, summary *service.FacilitySummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Writer, "event: summary\ndata: %s\n\n", payload)
	flusher.Flush()
	return nil
}

// streamErrorMessage maps a stream failure to the client-facing message
// carried under the "error" key of the terminal event.
func streamErrorMessage(err error) string {
	if errors.Is(err, service.ErrFacilityNotFound) {
		return "facility not found"
	}
	return "internal error"
}

// writeSSEError emits a terminal error event. The stream ends after it;
// clients reconnect via the usual EventSource retry.
func (h *StreamHandler) writeSSEError(c *gin.Context, flusher http.Flusher, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if h.Logger != nil {
		h.Logger.Warn("stream terminated", zap.Error(err))
	}
	payload, _ := json.Marshal(gin.H{"error": streamErrorMessage(err)})
	fmt.Fprintf(c.Writer, "event: error\ndata: %s\n\n", payload)
	flusher.Flush()
}

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (h *StreamHandler) streamWS(c *gin.Context) {
	if h.Dashboard == nil || h.Hub == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	facilityID := c.Param("facility_id")
	ctx := c.Request.Context()

	initial, err := h.Dashboard.Summary(ctx, facilityID, h.summaryHours())
	if err != nil {
		if errors.Is(err, service.ErrFacilityNotFound) {
			Error(c, http.StatusNotFound, "facility not found", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	send := func(msg wsMessage) error {
		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return wsjson.Write(writeCtx, conn, msg)
	}

	sendSummary := func() error {
		summary, err := h.Dashboard.Summary(ctx, facilityID, h.summaryHours())
		if err != nil {
			return err
		}
		return send(wsMessage{Type: "summary", Data: summary})
	}

	if err := send(wsMessage{Type: "summary", Data: initial}); err != nil {
		h.closeWSWithError(conn, send, err)
		return
	}

	for {
		fired, err := h.Hub.AwaitSignal(ctx, facilityID, h.AwaitTimeout)
		if err != nil {
			conn.Close(websocket.StatusNormalClosure, "shutdown")
			return
		}
		if !fired {
			if err := send(wsMessage{Type: "keepalive"}); err != nil {
				return
			}
			continue
		}
		if err := sendSummary(); err != nil {
			h.closeWSWithError(conn, send, err)
			return
		}
	}
}

func (h *StreamHandler) closeWSWithError(conn *websocket.Conn, send func(wsMessage) error, err error) {
	if errors.Is(err, context.Canceled) {
		conn.Close(websocket.StatusNormalClosure, "shutdown")
		return
	}
	if h.Logger != nil {
		h.Logger.Warn("websocket stream terminated", zap.Error(err))
	}
	msg := streamErrorMessage(err)
	_ = send(wsMessage{Type: "error", Data: gin.H{"error": msg}})
	conn.Close(websocket.StatusNormalClosure, msg)
}
