package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geNAZt/zoneheat/pkg/alarm"
	"github.com/geNAZt/zoneheat/pkg/api/v1/config"
	"github.com/geNAZt/zoneheat/pkg/arbiter"
	"github.com/geNAZt/zoneheat/pkg/gateway/fake"
	"github.com/geNAZt/zoneheat/pkg/meter"
	"github.com/geNAZt/zoneheat/pkg/state"
	"github.com/geNAZt/zoneheat/pkg/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *fake.Gateway) {
	t.Helper()
	gw := fake.New()
	arb := arbiter.New()
	alarms := alarm.New()

	cfg := config.Zone{
		EntityID:        "zone.livingroom",
		Group:           "house",
		Phase:           "l1",
		RatedCurrentMA:  9000,
		Output:          "switch.livingroom",
		RoomSensors:     []string{"temp.livingroom"},
		SecuritySensors: []string{"floor.livingroom"},
		PresenceSensor:  "presence.livingroom",
	}
	ctrl := zone.NewController(cfg, zone.NewRecord(cfg.EntityID, 21.0), gw, nil, arb, alarms)

	gw.SetPresence("presence.livingroom", true)
	gw.SetValue("temp.livingroom", time.Now(), 19.0)
	gw.SetValue("floor.livingroom", time.Now(), 22.0)
	ctrl.Recalc()

	s := New(":0", map[string]*zone.Controller{"zone.livingroom": ctrl}, arb, alarms, meter.NewCache())
	return s, gw
}

func TestListZones(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/zones", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]*state.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "zone.livingroom")
	assert.Equal(t, "heating", body["zone.livingroom"].State)
}

func TestGetUnknownZone(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/zones/zone.unknown", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetTarget(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/zones/zone.livingroom/target", strings.NewReader(`{"target":23.5}`))
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body state.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 23.5, *body.TargetTemperature)
}

func TestSetModeRejectsUnknown(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/zones/zone.livingroom/mode", strings.NewReader(`{"mode":"tropical"}`))
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetModeOff(t *testing.T) {
	s, gw := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/zones/zone.livingroom/mode", strings.NewReader(`{"mode":"off"}`))
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	on, ok := gw.LastOutput("switch.livingroom")
	assert.True(t, ok)
	assert.False(t, on)
}

func TestForceOff(t *testing.T) {
	s, gw := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/zones/zone.livingroom/force", strings.NewReader(`{"on":false}`))
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	on, _ := gw.LastOutput("switch.livingroom")
	assert.False(t, on)

	// the grant is gone from the phase ledger
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/phases", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var phases map[string]map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &phases))
	assert.Empty(t, phases["house/l1"])
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
