package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validZone() Zone {
	return Zone{
		EntityID:        "zone.livingroom",
		Group:           "house",
		Phase:           "l1",
		RatedCurrentMA:  9000,
		Output:          "switch.livingroom",
		RoomSensors:     []string{"temp.livingroom"},
		SecuritySensors: []string{"floor.livingroom"},
		PresenceSensor:  "presence.livingroom",
	}
}

func TestZoneValidate(t *testing.T) {
	z := validZone()
	assert.NoError(t, z.Validate())

	tests := []struct {
		name   string
		mutate func(*Zone)
	}{
		{name: "missing entityId", mutate: func(z *Zone) { z.EntityID = "" }},
		{name: "missing output", mutate: func(z *Zone) { z.Output = "" }},
		{name: "missing room sensors", mutate: func(z *Zone) { z.RoomSensors = nil }},
		{name: "missing security sensors", mutate: func(z *Zone) { z.SecuritySensors = nil }},
		{name: "missing presence sensor", mutate: func(z *Zone) { z.PresenceSensor = "" }},
		{name: "phase without group", mutate: func(z *Zone) { z.Group = "" }},
		{name: "phase without rated current", mutate: func(z *Zone) { z.RatedCurrentMA = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := validZone()
			tt.mutate(&z)
			err := z.Validate()
			assert.Error(t, err)
			var cfgErr *ZoneConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestZoneWithoutPhaseIsValid(t *testing.T) {
	z := validZone()
	z.Group = ""
	z.Phase = ""
	z.RatedCurrentMA = 0
	assert.NoError(t, z.Validate())
}

func TestMeterValidate(t *testing.T) {
	m := Meter{ID: "main", InterfaceType: "modbus", Address: "192.168.1.10:502"}
	assert.NoError(t, m.Validate())

	m.InterfaceType = "zigbee"
	assert.Error(t, m.Validate())

	m = Meter{ID: "main", InterfaceType: "mbus"}
	assert.Error(t, m.Validate(), "address is required")

	m = Meter{InterfaceType: "mbus", Address: "/dev/ttyAMA0"}
	assert.Error(t, m.Validate(), "id is required")
}

func TestLoadSite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.toml")
	body := `
[[zone]]
entityId = "zone.livingroom"
group = "house"
phase = "l1"
ratedCurrentMA = 9000.0
output = "switch.livingroom"
roomSensors = ["temp.livingroom"]
securitySensors = ["floor.livingroom"]
presenceSensor = "presence.livingroom"
adaptive = true

[[zone]]
entityId = "zone.attic"
output = "switch.attic"
roomSensors = ["temp.attic"]
securitySensors = ["floor.attic"]
presenceSensor = "presence.attic"
targetTemperature = 18.5

[[meter]]
id = "main"
interfaceType = "modbus"
model = "garo-GNM3D"
address = "192.168.1.10:502"
slaveId = 1
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	site, err := LoadSite(path)
	require.NoError(t, err)

	require.Len(t, site.Zone, 2)
	assert.Equal(t, "zone.livingroom", site.Zone[0].EntityID)
	assert.True(t, site.Zone[0].Adaptive)
	assert.Equal(t, 21.0, site.Zone[0].TargetTemperature, "default target applied")
	assert.Equal(t, 18.5, site.Zone[1].TargetTemperature)

	require.Len(t, site.Meter, 1)
	assert.Equal(t, "garo-GNM3D", site.Meter[0].Model)
	assert.Equal(t, 10, site.Meter[0].IntervalSec, "default interval applied")
}

func TestLoadSiteRejectsBrokenZone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.toml")
	body := `
[[zone]]
entityId = "zone.livingroom"
roomSensors = ["temp.livingroom"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	_, err := LoadSite(path)
	assert.Error(t, err)
	var cfgErr *ZoneConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
