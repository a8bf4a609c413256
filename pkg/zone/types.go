package zone

import "fmt"

// Mode is the user facing operating mode of a zone. Off suppresses all
// control logic until the mode is changed again.
type Mode string

var (
	ModeOff  = Mode("off")
	ModeIdle = Mode("idle")
	ModeHeat = Mode("heat")
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOff, ModeIdle, ModeHeat:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// State is the last decision the recalculation loop arrived at. It is derived
// state for observability; Mode and the Record timers are what the machine
// actually runs on.
type State string

var (
	StateOff              = State("off")
	StateIdle             = State("idle")
	StateHeating          = State("heating")
	StateAtTarget         = State("atTarget")
	StateHalted           = State("halted")
	StateSecurityShutdown = State("securityShutdown")
	StateWindowOpen       = State("windowOpen")
)
