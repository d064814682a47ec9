package mqtt

import (
	"encoding/json"
	"path"

	"edgemux/pkg/dispatch"

	"github.com/womat/debug"
)

// Reporter publishes the dispatch events, one topic per line.
type Reporter struct {
	h     *Handler
	topic string
}

// NewReporter publishes to <topic>/<line> over h.
func NewReporter(h *Handler, topic string) *Reporter {
	return &Reporter{h: h, topic: topic}
}

// Report hands the event to the mqtt service. If the service is busy the
// event is dropped, the loop is never held up by the broker.
func (r *Reporter) Report(e dispatch.Event) {
	if !r.h.Connected() {
		return
	}

	b, err := json.Marshal(e)
	if err != nil {
		debug.ErrorLog.Printf("mqtt marshal: %v", err)
		return
	}

	msg := Message{
		Qos:      0,
		Retained: true,
		Topic:    path.Join(r.topic, e.Line),
		Payload:  b,
	}

	select {
	case r.h.C <- msg:
	default:
		debug.ErrorLog.Printf("mqtt queue full, dropping event %d of %s", e.Seq, e.Line)
	}
}
