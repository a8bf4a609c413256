package gateway

import (
	"errors"
	"time"
)

// ErrUnavailable is returned when a sensor has not reported a value yet or
// the reading could not be obtained. Callers are expected to keep their last
// known value and retry on the next tick.
var ErrUnavailable = errors.New("sensor unavailable")

type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Gateway is the sensor/actuator platform the zone controllers talk to.
// All reads are point reads of the latest known value plus a bounded history
// query. Writes are bounded-latency commands.
type Gateway interface {
	Temperature(id string) (float64, error)
	Current(id string) (float64, error)
	Presence(id string) (bool, error)
	SetOutput(id string, on bool) error
	History(id string, since time.Time) ([]Sample, error)
}
