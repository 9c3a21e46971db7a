package realtime

// ChannelNotifier adapts the hub to the cores' Notifier interface: every
// state change is broadcast (and published across instances) on one channel.
type ChannelNotifier struct {
	hub     *Hub
	channel string
}

// NewChannelNotifier creates a notifier bound to a channel.
func NewChannelNotifier(hub *Hub, channel string) *ChannelNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &ChannelNotifier{hub: hub, channel: channel}
}

// Notify broadcasts one state-change event.
func (n *ChannelNotifier) Notify(event string, payload interface{}) {
	n.hub.BroadcastAndPublish(n.channel, event, payload)
}
