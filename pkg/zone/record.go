package zone

import "time"

const (
	// TimeSlotSeconds is the fixed duty-cycle slot length. The on and off
	// interval of a zone always sum to this.
	TimeSlotSeconds = 1800.0

	TargetTemperatureMin = 16.0
	TargetTemperatureMax = 25.0

	DefaultTargetTemperature = 21.0

	defaultDutyOnSeconds = 600.0

	energyHistoryRetention = 24 * time.Hour
)

type EnergySample struct {
	Time            int64   `json:"time"`
	EnergyWh        float64 `json:"energyWh"`
	TemperatureDiff float64 `json:"temperatureDiff"`
}

// Record is the durable state of one heating zone. Timestamps are epoch
// seconds so the on-disk form stays trivially diffable.
type Record struct {
	EntityID             string         `json:"entityId"`
	Mode                 Mode           `json:"mode"`
	TargetTemperature    float64        `json:"targetTemperature"`
	DutyOnSeconds        float64        `json:"dutyOnSeconds"`
	DutyOffSeconds       float64        `json:"dutyOffSeconds"`
	MeasuredCurrentAmps  float64        `json:"measuredCurrentAmps"`
	HeatingStartedAt     int64          `json:"heatingStartedAt"`
	HeatingHaltedUntil   int64          `json:"heatingHaltedUntil"`
	LastDutyAdjustmentAt int64          `json:"lastDutyAdjustmentAt"`
	EnergyHistory        []EnergySample `json:"energyHistory,omitempty"`
}

func NewRecord(entityID string, target float64) *Record {
	return &Record{
		EntityID:          entityID,
		Mode:              ModeIdle,
		TargetTemperature: ClampTarget(target),
		DutyOnSeconds:     defaultDutyOnSeconds,
		DutyOffSeconds:    TimeSlotSeconds - defaultDutyOnSeconds,
	}
}

func ClampTarget(t float64) float64 {
	if t < TargetTemperatureMin {
		return TargetTemperatureMin
	}
	if t > TargetTemperatureMax {
		return TargetTemperatureMax
	}
	return t
}

func (r *Record) SetTarget(t float64) {
	r.TargetTemperature = ClampTarget(t)
}

func (r *Record) AppendEnergySample(s EnergySample, now time.Time) {
	r.EnergyHistory = append(r.EnergyHistory, s)
	r.PruneEnergyHistory(now)
}

func (r *Record) PruneEnergyHistory(now time.Time) {
	cutoff := now.Add(-energyHistoryRetention).Unix()
	first := 0
	for first < len(r.EnergyHistory) && r.EnergyHistory[first].Time < cutoff {
		first++
	}
	r.EnergyHistory = r.EnergyHistory[first:]
}

// Update is a partial mutation of a Record. Nil fields leave the stored value
// untouched.
type Update struct {
	Mode                 *Mode          `json:"mode,omitempty"`
	TargetTemperature    *float64       `json:"targetTemperature,omitempty"`
	DutyOnSeconds        *float64       `json:"dutyOnSeconds,omitempty"`
	DutyOffSeconds       *float64       `json:"dutyOffSeconds,omitempty"`
	MeasuredCurrentAmps  *float64       `json:"measuredCurrentAmps,omitempty"`
	HeatingStartedAt     *int64         `json:"heatingStartedAt,omitempty"`
	HeatingHaltedUntil   *int64         `json:"heatingHaltedUntil,omitempty"`
	LastDutyAdjustmentAt *int64         `json:"lastDutyAdjustmentAt,omitempty"`
	EnergyHistory        []EnergySample `json:"energyHistory,omitempty"`
}

func (r *Record) Apply(u Update) {
	if u.Mode != nil {
		r.Mode = *u.Mode
	}
	if u.TargetTemperature != nil {
		r.TargetTemperature = ClampTarget(*u.TargetTemperature)
	}
	if u.DutyOnSeconds != nil {
		r.DutyOnSeconds = *u.DutyOnSeconds
	}
	if u.DutyOffSeconds != nil {
		r.DutyOffSeconds = *u.DutyOffSeconds
	}
	if u.MeasuredCurrentAmps != nil {
		r.MeasuredCurrentAmps = *u.MeasuredCurrentAmps
	}
	if u.HeatingStartedAt != nil {
		r.HeatingStartedAt = *u.HeatingStartedAt
	}
	if u.HeatingHaltedUntil != nil {
		r.HeatingHaltedUntil = *u.HeatingHaltedUntil
	}
	if u.LastDutyAdjustmentAt != nil {
		r.LastDutyAdjustmentAt = *u.LastDutyAdjustmentAt
	}
	if u.EnergyHistory != nil {
		r.EnergyHistory = u.EnergyHistory
	}
}
