package arbiter

// Consumer is the capability a zone (or any other load) hands to the arbiter
// when registering. TurnOn/TurnOff are forced actuation, CanBeDelayed and
// ConsumeSurplus are advisory hints other subsystems may query or trigger.
type Consumer interface {
	TurnOn()
	TurnOff()
	CanBeDelayed() bool
	ConsumeSurplus()
}

// Handle identifies one registered consumer inside the arbiter. The current
// draw is guarded by the arbiter mutex.
type Handle struct {
	group string
	name  string
	phase string

	currentMA float64
	consumer  Consumer
}

func (h *Handle) Group() string { return h.group }
func (h *Handle) Name() string  { return h.name }
func (h *Handle) Phase() string { return h.phase }
