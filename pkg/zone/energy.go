package zone

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// TrendMinSamples is the minimum history size before the efficiency
	// trend is considered at all.
	TrendMinSamples = 10

	TrendRecentSamples = 5

	// TrendTolerance is the relative efficiency change that triggers a duty
	// adjustment.
	TrendTolerance = 0.10
)

// accountEnergy books the energy used during the just-finished heating
// interval and lets the efficiency trend nudge the duty split. Advisory
// only; it runs after the safety checks already decided to stop.
func (c *Controller) accountEnergy(now time.Time, elapsedSeconds float64) {
	if elapsedSeconds <= 0 {
		return
	}
	wh := c.rec.MeasuredCurrentAmps * MainsVoltage / 3600.0 * elapsedSeconds
	c.rec.AppendEnergySample(EnergySample{
		Time:            now.Unix(),
		EnergyWh:        wh,
		TemperatureDiff: c.heatStartDeficit,
	}, now)

	c.evaluateEfficiency(now)
}

func (c *Controller) evaluateEfficiency(now time.Time) {
	hist := c.rec.EnergyHistory
	if len(hist) < TrendMinSamples {
		return
	}

	overall := whPerDegree(hist)
	recent := whPerDegree(hist[len(hist)-TrendRecentSamples:])
	if overall <= 0 || recent <= 0 {
		return
	}

	switch {
	case recent >= overall*(1+TrendTolerance):
		if c.manipulateDown(now) {
			logrus.Infof("zone %s: efficiency degrading (%.1f vs %.1f Wh/°C), easing duty", c.cfg.EntityID, recent, overall)
		}
	case recent <= overall*(1-TrendTolerance):
		if c.manipulateUp(now) {
			logrus.Infof("zone %s: efficiency improving (%.1f vs %.1f Wh/°C), raising duty", c.cfg.EntityID, recent, overall)
		}
	}
}

func whPerDegree(samples []EnergySample) float64 {
	var wh, deg float64
	for _, s := range samples {
		if s.TemperatureDiff <= 0 {
			continue
		}
		wh += s.EnergyWh
		deg += s.TemperatureDiff
	}
	if deg == 0 {
		return 0
	}
	return wh / deg
}
