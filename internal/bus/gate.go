package bus

import "strings"

// Gate decides which channels are subject to filtering.
//
// Internal channels are never filtered. When client channels are configured,
// only those are filtered; otherwise every non-internal channel is.
// Channel names compare case-insensitively.
type Gate struct {
	client   map[string]struct{}
	internal map[string]struct{}
}

// NewGate creates a Gate.
func NewGate(client, internal []string) *Gate {
	return &Gate{
		client:   channelSet(client),
		internal: channelSet(internal),
	}
}

func channelSet(channels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		if ch = strings.ToLower(strings.TrimSpace(ch)); ch != "" {
			set[ch] = struct{}{}
		}
	}
	return set
}

// Applies reports whether messages on channel must be evaluated.
func (g *Gate) Applies(channel string) bool {
	ch := strings.ToLower(strings.TrimSpace(channel))
	if _, ok := g.internal[ch]; ok {
		return false
	}
	if len(g.client) == 0 {
		return true
	}
	_, ok := g.client[ch]
	return ok
}
