package mqtt

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"edgemux/pkg/dispatch"
	"edgemux/pkg/port"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/womat/debug"
)

func TestMain(m *testing.M) {
	debug.SetDebug(os.Stderr, debug.Standard)
	os.Exit(m.Run())
}

func TestReporterWithoutBroker(t *testing.T) {
	h := New(1)
	if err := h.Connect("", "edgemux"); err != nil {
		t.Fatalf("Connect returned err: %v", err)
	}

	NewReporter(h, "edgemux/lines").Report(dispatch.Event{Seq: 1, Line: "button1", Level: port.High})
	if len(h.C) != 0 {
		t.Errorf("got %d queued messages want 0", len(h.C))
	}
}

func TestReporterMessage(t *testing.T) {
	// an unconnected client is enough, nothing is published before Service runs
	h := New(1)
	h.handler = mqttlib.NewClient(mqttlib.NewClientOptions())

	r := NewReporter(h, "edgemux/lines")
	e := dispatch.Event{Seq: 7, Line: "button2", Level: port.Low, Time: time.Date(2022, 4, 2, 0, 0, 0, 0, time.UTC)}
	r.Report(e)

	msg := <-h.C
	if msg.Topic != "edgemux/lines/button2" {
		t.Errorf("got topic %q want edgemux/lines/button2", msg.Topic)
	}
	if !msg.Retained {
		t.Error("message not retained")
	}

	var got map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got["line_id"] != "button2" || got["new_level"] != "low" || got["seq"] != float64(7) {
		t.Errorf("got payload %s", msg.Payload)
	}
}

func TestReporterDropsWhenFull(t *testing.T) {
	h := New(1)
	h.handler = mqttlib.NewClient(mqttlib.NewClientOptions())
	r := NewReporter(h, "edgemux/lines")

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 3; i++ {
			r.Report(dispatch.Event{Seq: uint64(i), Line: "button1", Level: port.High})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report blocked on a full queue")
	}
	if len(h.C) != 1 {
		t.Errorf("got %d queued messages want 1", len(h.C))
	}
}
