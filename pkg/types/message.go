package types

// Message is an inter-process message descriptor.
type Message struct {
	// Sender is a weak reference to the sending process. NoProc means
	// unattributed.
	Sender ProcHandle

	// Payload is a single opaque value; the core never interprets it.
	Payload uint32
}

// Reset sets every field to its neutral default.
func (m *Message) Reset() {
	m.Sender = NoProc
	m.Payload = 0
}
