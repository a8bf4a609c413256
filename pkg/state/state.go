package state

// Status is a point-in-time snapshot of one zone, published to MQTT and the
// status API. Pointer fields are omitted when the underlying reading is not
// available yet.
type Status struct {
	EntityID string `json:"entityId"`
	State    string `json:"state"`
	Mode     string `json:"mode"`

	RoomTemperature     *float64 `json:"roomTemperature,omitempty"`
	SecurityTemperature *float64 `json:"securityTemperature,omitempty"`
	TargetTemperature   *float64 `json:"targetTemperature,omitempty"`
	EffectiveTarget     *float64 `json:"effectiveTarget,omitempty"`
	RoomRate            *float64 `json:"roomRate,omitempty"`

	DutyOnSeconds       *float64 `json:"dutyOnSeconds,omitempty"`
	DutyOffSeconds      *float64 `json:"dutyOffSeconds,omitempty"`
	MeasuredCurrentAmps *float64 `json:"measuredCurrentAmps,omitempty"`
	GrantedMA           *float64 `json:"grantedMa,omitempty"`

	Heating     *bool  `json:"heating,omitempty"`
	Occupied    *bool  `json:"occupied,omitempty"`
	HaltedUntil *int64 `json:"haltedUntil,omitempty"`
}

func (s Status) Map() map[string]interface{} {
	m := make(map[string]interface{})
	m["state"] = s.State
	m["mode"] = s.Mode
	if s.RoomTemperature != nil {
		m["roomTemperature"] = *s.RoomTemperature
	}
	if s.SecurityTemperature != nil {
		m["securityTemperature"] = *s.SecurityTemperature
	}
	if s.TargetTemperature != nil {
		m["targetTemperature"] = *s.TargetTemperature
	}
	if s.EffectiveTarget != nil {
		m["effectiveTarget"] = *s.EffectiveTarget
	}
	if s.RoomRate != nil {
		m["roomRate"] = *s.RoomRate
	}
	if s.DutyOnSeconds != nil {
		m["dutyOnSeconds"] = *s.DutyOnSeconds
	}
	if s.DutyOffSeconds != nil {
		m["dutyOffSeconds"] = *s.DutyOffSeconds
	}
	if s.MeasuredCurrentAmps != nil {
		m["measuredCurrentAmps"] = *s.MeasuredCurrentAmps
	}
	if s.GrantedMA != nil {
		m["grantedMa"] = *s.GrantedMA
	}
	if s.Heating != nil {
		m["heating"] = boolToInt(*s.Heating)
	}
	if s.Occupied != nil {
		m["occupied"] = boolToInt(*s.Occupied)
	}
	if s.HaltedUntil != nil {
		m["haltedUntil"] = *s.HaltedUntil
	}
	return m
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func Pointer[K any](val K) *K {
	return &val
}
