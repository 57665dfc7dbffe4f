package alert

// Emitter sends best-effort alerts. Implementations must never block the
// caller on delivery.
type Emitter interface {
	Notify(kind, message string)
}

// Nop discards all alerts.
type Nop struct{}

func (Nop) Notify(string, string) {}
