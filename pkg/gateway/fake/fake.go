package fake

import (
	"fmt"
	"sync"
	"time"

	"github.com/geNAZt/zoneheat/pkg/gateway"
)

// Output records one SetOutput call.
type Output struct {
	ID string
	On bool
}

// Gateway is a scripted in-memory gateway.Gateway for tests.
type Gateway struct {
	mutex    sync.Mutex
	history  map[string][]gateway.Sample
	presence map[string]bool
	errors   map[string]error

	Outputs []Output
}

func New() *Gateway {
	return &Gateway{
		history:  make(map[string][]gateway.Sample),
		presence: make(map[string]bool),
		errors:   make(map[string]error),
	}
}

// SetValue appends a sample for the given sensor.
func (g *Gateway) SetValue(id string, at time.Time, value float64) {
	g.mutex.Lock()
	g.history[id] = append(g.history[id], gateway.Sample{Time: at, Value: value})
	g.mutex.Unlock()
}

func (g *Gateway) SetPresence(id string, present bool) {
	g.mutex.Lock()
	g.presence[id] = present
	g.mutex.Unlock()
}

// FailWith makes every read of the given sensor return err.
func (g *Gateway) FailWith(id string, err error) {
	g.mutex.Lock()
	if err == nil {
		delete(g.errors, id)
	} else {
		g.errors[id] = err
	}
	g.mutex.Unlock()
}

func (g *Gateway) value(id string) (float64, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := g.errors[id]; err != nil {
		return 0, err
	}
	samples := g.history[id]
	if len(samples) == 0 {
		return 0, fmt.Errorf("%s: %w", id, gateway.ErrUnavailable)
	}
	return samples[len(samples)-1].Value, nil
}

func (g *Gateway) Temperature(id string) (float64, error) { return g.value(id) }
func (g *Gateway) Current(id string) (float64, error)     { return g.value(id) }

func (g *Gateway) Presence(id string) (bool, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := g.errors[id]; err != nil {
		return false, err
	}
	p, ok := g.presence[id]
	if !ok {
		return false, fmt.Errorf("%s: %w", id, gateway.ErrUnavailable)
	}
	return p, nil
}

func (g *Gateway) History(id string, since time.Time) ([]gateway.Sample, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := g.errors[id]; err != nil {
		return nil, err
	}
	var out []gateway.Sample
	for _, s := range g.history[id] {
		if s.Time.Before(since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (g *Gateway) SetOutput(id string, on bool) error {
	g.mutex.Lock()
	g.Outputs = append(g.Outputs, Output{ID: id, On: on})
	g.mutex.Unlock()
	return nil
}

// LastOutput returns the most recent SetOutput call for id.
func (g *Gateway) LastOutput(id string) (bool, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	for i := len(g.Outputs) - 1; i >= 0; i-- {
		if g.Outputs[i].ID == id {
			return g.Outputs[i].On, true
		}
	}
	return false, false
}
