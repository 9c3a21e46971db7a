package realtime

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func newHubClient(hub *Hub, channel string) *Client {
	return &Client{
		ID:      "test-client-" + channel,
		Channel: channel,
		hub:     hub,
		send:    make(chan WSMessage, 4),
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	c := newHubClient(hub, "annotator")
	hub.Register(c)
	defer hub.Unregister(c)

	if got := hub.ClientCount("annotator"); got != 1 {
		t.Fatalf("client count = %d, want 1", got)
	}

	hub.Broadcast("annotator", "session_updated", map[string]bool{"frozen": true})
	select {
	case msg := <-c.send:
		if msg.Event != "session_updated" {
			t.Fatalf("event = %q", msg.Event)
		}
		var payload map[string]bool
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if !payload["frozen"] {
			t.Fatalf("payload = %v", payload)
		}
	default:
		t.Fatal("client did not receive broadcast")
	}

	// Other channels stay quiet.
	hub.Broadcast("elsewhere", "session_updated", nil)
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message %+v", msg)
	default:
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	c := newHubClient(hub, "annotator")
	hub.Register(c)
	hub.Unregister(c)
	if got := hub.ClientCount("annotator"); got != 0 {
		t.Fatalf("client count = %d, want 0", got)
	}
	// Broadcasting into an empty channel is a no-op.
	hub.Broadcast("annotator", "session_updated", nil)
}

func TestChannelNotifier(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	c := newHubClient(hub, DefaultChannel)
	hub.Register(c)
	defer hub.Unregister(c)

	NewChannelNotifier(hub, "").Notify("answer_updated", map[string]int{"event_id": 3})
	select {
	case msg := <-c.send:
		if msg.Event != "answer_updated" {
			t.Fatalf("event = %q", msg.Event)
		}
	default:
		t.Fatal("notifier did not reach hub client")
	}
}
