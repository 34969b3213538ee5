package room

// Broadcaster pushes a full state snapshot to every subscriber. Implementations
// must not block the caller: delivery is fire-and-forget.
type Broadcaster interface {
	Broadcast(state State)
}

// BroadcasterFunc adapts a function to the Broadcaster interface.
type BroadcasterFunc func(state State)

// Broadcast calls f(state).
func (f BroadcasterFunc) Broadcast(state State) {
	f(state)
}

// Broadcasters fans a snapshot out to several sinks in order.
type Broadcasters []Broadcaster

// Broadcast sends state to each sink.
func (bs Broadcasters) Broadcast(state State) {
	for _, b := range bs {
		if b != nil {
			b.Broadcast(state)
		}
	}
}
