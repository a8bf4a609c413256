package mqttgw

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/geNAZt/zoneheat/pkg/gateway"
	"github.com/sirupsen/logrus"
)

const retention = 24 * time.Hour

// Gateway implements gateway.Gateway on top of an MQTT broker. Sensors
// publish plain values on <prefix>/sensor/<id>; outputs are commanded via
// <prefix>/switch/<id>/set.
type Gateway struct {
	client paho.Client
	prefix string

	mutex   sync.RWMutex
	history map[string][]gateway.Sample
}

func New(broker, prefix, clientID string) *Gateway {
	g := &Gateway{
		prefix:  prefix,
		history: make(map[string][]gateway.Sample),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false)
	opts.SetOnConnectHandler(func(c paho.Client) {
		topic := g.prefix + "/sensor/#"
		if token := c.Subscribe(topic, 1, g.onMessage); token.Wait() && token.Error() != nil {
			logrus.Errorf("error subscribing to %s: %v", topic, token.Error())
		}
	})

	g.client = paho.NewClient(opts)
	return g
}

func (g *Gateway) Connect() error {
	token := g.client.Connect()
	token.Wait()
	return token.Error()
}

func (g *Gateway) Close() {
	g.client.Disconnect(250)
}

func (g *Gateway) onMessage(_ paho.Client, msg paho.Message) {
	id := strings.TrimPrefix(msg.Topic(), g.prefix+"/sensor/")
	g.observe(id, string(msg.Payload()), time.Now())
}

func (g *Gateway) observe(id, payload string, at time.Time) {
	v, err := parseValue(payload)
	if err != nil {
		logrus.Debugf("ignoring payload %q on sensor %s: %v", payload, id, err)
		return
	}

	g.mutex.Lock()
	samples := append(g.history[id], gateway.Sample{Time: at, Value: v})
	g.history[id] = prune(samples, at.Add(-retention))
	g.mutex.Unlock()
}

// prune drops samples older than cutoff but always keeps the newest one so a
// silent sensor still has a last known value.
func prune(samples []gateway.Sample, cutoff time.Time) []gateway.Sample {
	first := 0
	for first < len(samples)-1 && samples[first].Time.Before(cutoff) {
		first++
	}
	return samples[first:]
}

func parseValue(payload string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(payload))
	switch s {
	case "on", "true", "home":
		return 1, nil
	case "off", "false", "away", "unavailable", "unknown":
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func (g *Gateway) last(id string) (gateway.Sample, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	samples := g.history[id]
	if len(samples) == 0 {
		return gateway.Sample{}, false
	}
	return samples[len(samples)-1], true
}

func (g *Gateway) Temperature(id string) (float64, error) {
	s, ok := g.last(id)
	if !ok {
		return 0, fmt.Errorf("temperature %s: %w", id, gateway.ErrUnavailable)
	}
	return s.Value, nil
}

func (g *Gateway) Current(id string) (float64, error) {
	s, ok := g.last(id)
	if !ok {
		return 0, fmt.Errorf("current %s: %w", id, gateway.ErrUnavailable)
	}
	return s.Value, nil
}

func (g *Gateway) Presence(id string) (bool, error) {
	s, ok := g.last(id)
	if !ok {
		return false, fmt.Errorf("presence %s: %w", id, gateway.ErrUnavailable)
	}
	return s.Value != 0, nil
}

func (g *Gateway) History(id string, since time.Time) ([]gateway.Sample, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
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
	payload := "OFF"
	if on {
		payload = "ON"
	}
	token := g.client.Publish(g.prefix+"/switch/"+id+"/set", 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("error commanding output %s: %w", id, err)
	}
	return nil
}

// PublishSensor feeds a locally measured value back through the broker so it
// becomes visible like any other sensor. Used by the meter pollers.
func (g *Gateway) PublishSensor(id string, value float64) error {
	token := g.client.Publish(g.prefix+"/sensor/"+id, 0, false, strconv.FormatFloat(value, 'f', -1, 64))
	token.Wait()
	return token.Error()
}

// Publish sends an arbitrary payload below the gateway prefix. Used for zone
// status publication.
func (g *Gateway) Publish(topic string, payload string) error {
	token := g.client.Publish(g.prefix+"/"+topic, 0, true, payload)
	token.Wait()
	return token.Error()
}
