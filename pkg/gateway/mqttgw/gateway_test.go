package mqttgw

import (
	"testing"
	"time"

	"github.com/geNAZt/zoneheat/pkg/gateway"
	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		payload string
		want    float64
		wantErr bool
	}{
		{payload: "21.5", want: 21.5},
		{payload: " 21.5 ", want: 21.5},
		{payload: "ON", want: 1},
		{payload: "on", want: 1},
		{payload: "true", want: 1},
		{payload: "home", want: 1},
		{payload: "OFF", want: 0},
		{payload: "false", want: 0},
		{payload: "away", want: 0},
		{payload: "unavailable", want: 0},
		{payload: "unknown", want: 0},
		{payload: "not a number", wantErr: true},
		{payload: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			v, err := parseValue(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func newObservedGateway() *Gateway {
	return &Gateway{
		prefix:  "zoneheat",
		history: make(map[string][]gateway.Sample),
	}
}

func TestObserveAndRead(t *testing.T) {
	g := newObservedGateway()
	now := time.Unix(1700000000, 0)

	g.observe("temp.livingroom", "19.5", now)
	g.observe("presence.livingroom", "home", now)

	v, err := g.Temperature("temp.livingroom")
	assert.NoError(t, err)
	assert.Equal(t, 19.5, v)

	p, err := g.Presence("presence.livingroom")
	assert.NoError(t, err)
	assert.True(t, p)

	_, err = g.Temperature("temp.unknown")
	assert.ErrorIs(t, err, gateway.ErrUnavailable)
}

func TestObserveIgnoresGarbage(t *testing.T) {
	g := newObservedGateway()
	now := time.Unix(1700000000, 0)

	g.observe("temp.livingroom", "19.5", now)
	g.observe("temp.livingroom", "garbage", now.Add(time.Minute))

	// the bad payload did not displace the last good value
	v, err := g.Temperature("temp.livingroom")
	assert.NoError(t, err)
	assert.Equal(t, 19.5, v)
}

func TestHistoryWindow(t *testing.T) {
	g := newObservedGateway()
	now := time.Unix(1700000000, 0)

	g.observe("temp.livingroom", "19.0", now.Add(-40*time.Minute))
	g.observe("temp.livingroom", "19.2", now.Add(-20*time.Minute))
	g.observe("temp.livingroom", "19.4", now)

	samples, err := g.History("temp.livingroom", now.Add(-30*time.Minute))
	assert.NoError(t, err)
	if assert.Len(t, samples, 2) {
		assert.Equal(t, 19.2, samples[0].Value)
		assert.Equal(t, 19.4, samples[1].Value)
	}
}

func TestPruneKeepsNewestSample(t *testing.T) {
	now := time.Unix(1700000000, 0)
	samples := []gateway.Sample{
		{Time: now.Add(-30 * time.Hour), Value: 1},
		{Time: now.Add(-26 * time.Hour), Value: 2},
	}

	kept := prune(samples, now.Add(-24*time.Hour))
	if assert.Len(t, kept, 1) {
		assert.Equal(t, 2.0, kept[0].Value)
	}
}

func TestObservePrunesOldSamples(t *testing.T) {
	g := newObservedGateway()
	now := time.Unix(1700000000, 0)

	g.observe("temp.livingroom", "18.0", now.Add(-25*time.Hour))
	g.observe("temp.livingroom", "19.0", now)

	samples, err := g.History("temp.livingroom", time.Time{})
	assert.NoError(t, err)
	if assert.Len(t, samples, 1) {
		assert.Equal(t, 19.0, samples[0].Value)
	}
}
