package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"arxplain/internal/agent"
)

// SSEWriter frames agent events as server-sent events: one
// "data: <json>\n\n" frame per event, flushed immediately so intermediaries
// cannot batch delivery.
type SSEWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	return &SSEWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

func (s *SSEWriter) Send(event agent.Event) error {
	b, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	return s.rc.Flush()
}

// EncodeEvent renders one event as its wire JSON, tagged with its type.
func EncodeEvent(event agent.Event) ([]byte, error) {
	type tag struct {
		Type agent.EventType `json:"type"`
	}
	switch e := event.(type) {
	case agent.TextEvent:
		return json.Marshal(struct {
			tag
			agent.TextEvent
		}{tag{e.Type()}, e})
	case agent.ToolUseEvent:
		return json.Marshal(struct {
			tag
			agent.ToolUseEvent
		}{tag{e.Type()}, e})
	case agent.ToolResultEvent:
		return json.Marshal(struct {
			tag
			agent.ToolResultEvent
		}{tag{e.Type()}, e})
	case agent.ErrorEvent:
		return json.Marshal(struct {
			tag
			agent.ErrorEvent
		}{tag{e.Type()}, e})
	case agent.DoneEvent:
		return json.Marshal(tag{e.Type()})
	default:
		return nil, fmt.Errorf("unknown event type %T", event)
	}
}
