package config

import (
	"fmt"

	"github.com/koding/multiconfig"
)

// Site is the on-site installation description: which heating zones exist,
// which sensors and outputs they own, and which meters supply phase currents.
type Site struct {
	Zone  []Zone  `toml:"zone"`
	Meter []Meter `toml:"meter"`
}

type Zone struct {
	EntityID string `toml:"entityId"`

	// Group and Phase locate the zone's circuit for capacity arbitration.
	// A zone without a phase is not capacity-limited.
	Group string `toml:"group"`
	Phase string `toml:"phase"`

	// RatedCurrentMA is the draw requested from the arbiter before a live
	// measurement is available.
	RatedCurrentMA float64 `toml:"ratedCurrentMA"`

	Output          string   `toml:"output"`
	RoomSensors     []string `toml:"roomSensors"`
	SecuritySensors []string `toml:"securitySensors"`
	PresenceSensor  string   `toml:"presenceSensor"`
	CurrentSensor   string   `toml:"currentSensor"`

	TargetTemperature float64 `toml:"targetTemperature"`
	Adaptive          bool    `toml:"adaptive"`
}

type Meter struct {
	ID            string `toml:"id"`
	InterfaceType string `toml:"interfaceType"`
	Model         string `toml:"model"`
	Address       string `toml:"address"`
	PrimaryID     string `toml:"primaryId"`
	SlaveID       int    `toml:"slaveId"`
	IntervalSec   int    `toml:"intervalSec"`
}

// ZoneConfigError is fatal at startup: a zone with missing actuation or
// sensors must refuse to start instead of running with undefined behavior.
type ZoneConfigError struct {
	EntityID string
	Reason   string
}

func (e *ZoneConfigError) Error() string {
	return fmt.Sprintf("zone %q: %s", e.EntityID, e.Reason)
}

func (z *Zone) Validate() error {
	if z.EntityID == "" {
		return &ZoneConfigError{EntityID: z.EntityID, Reason: "entityId is required"}
	}
	if z.Output == "" {
		return &ZoneConfigError{EntityID: z.EntityID, Reason: "no output actuator configured"}
	}
	if len(z.RoomSensors) == 0 {
		return &ZoneConfigError{EntityID: z.EntityID, Reason: "no room temperature sensors configured"}
	}
	if len(z.SecuritySensors) == 0 {
		return &ZoneConfigError{EntityID: z.EntityID, Reason: "no security temperature sensors configured"}
	}
	if z.PresenceSensor == "" {
		return &ZoneConfigError{EntityID: z.EntityID, Reason: "no presence sensor configured"}
	}
	if z.Phase != "" && z.Group == "" {
		return &ZoneConfigError{EntityID: z.EntityID, Reason: "phase is set but group is empty"}
	}
	if z.Phase != "" && z.RatedCurrentMA <= 0 {
		return &ZoneConfigError{EntityID: z.EntityID, Reason: "ratedCurrentMA must be positive for a phase-bound zone"}
	}
	return nil
}

func (m *Meter) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("meter without id")
	}
	switch m.InterfaceType {
	case "modbus", "mbus":
	default:
		return fmt.Errorf("meter %q: unknown interfaceType %q", m.ID, m.InterfaceType)
	}
	if m.Address == "" {
		return fmt.Errorf("meter %q: address is required", m.ID)
	}
	return nil
}

func LoadSite(path string) (*Site, error) {
	site := &Site{}
	loader := multiconfig.MultiLoader(
		&multiconfig.TagLoader{},
		&multiconfig.TOMLLoader{Path: path},
	)
	if err := loader.Load(site); err != nil {
		return nil, fmt.Errorf("error loading site config %s: %w", path, err)
	}

	for i := range site.Zone {
		if site.Zone[i].TargetTemperature == 0 {
			site.Zone[i].TargetTemperature = 21.0
		}
		if err := site.Zone[i].Validate(); err != nil {
			return nil, err
		}
	}
	for i := range site.Meter {
		if site.Meter[i].IntervalSec == 0 {
			site.Meter[i].IntervalSec = 10
		}
		if err := site.Meter[i].Validate(); err != nil {
			return nil, err
		}
	}
	return site, nil
}
