package zone

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DutyStepSeconds is how far one adjustment shifts the on/off split.
	DutyStepSeconds = 5.0

	// DutyAdjustCooldown rate-limits adjustments so the tuning cannot
	// oscillate within a slot.
	DutyAdjustCooldown = time.Minute
)

func (c *Controller) adjustAllowed(now time.Time) bool {
	return !now.Before(time.Unix(c.rec.LastDutyAdjustmentAt, 0).Add(DutyAdjustCooldown))
}

// manipulateUp shifts one step from the off to the on side of the slot.
func (c *Controller) manipulateUp(now time.Time) bool {
	if !c.adjustAllowed(now) {
		return false
	}
	if c.rec.DutyOffSeconds-DutyStepSeconds < DutyStepSeconds {
		return false
	}
	c.applyDutyStep(now, DutyStepSeconds)
	return true
}

// manipulateDown shifts one step from the on to the off side. It only acts
// while the zone is occupied; an empty zone keeps its split so the comfort
// level is unchanged when people return.
func (c *Controller) manipulateDown(now time.Time) bool {
	if !c.occupied(now) {
		return false
	}
	if !c.adjustAllowed(now) {
		return false
	}
	if c.rec.DutyOnSeconds-DutyStepSeconds < DutyStepSeconds {
		return false
	}
	c.applyDutyStep(now, -DutyStepSeconds)
	return true
}

func (c *Controller) applyDutyStep(now time.Time, step float64) {
	c.rec.DutyOnSeconds += step
	c.rec.DutyOffSeconds = TimeSlotSeconds - c.rec.DutyOnSeconds
	c.rec.LastDutyAdjustmentAt = now.Unix()

	logrus.Debugf("zone %s: duty split now %.0f/%.0f", c.cfg.EntityID, c.rec.DutyOnSeconds, c.rec.DutyOffSeconds)
	c.persist(Update{
		DutyOnSeconds:        &c.rec.DutyOnSeconds,
		DutyOffSeconds:       &c.rec.DutyOffSeconds,
		LastDutyAdjustmentAt: &c.rec.LastDutyAdjustmentAt,
	})
}

// tuneForRate nudges the duty split towards the reference warming rate. A
// rate of exactly 0 means no signal, not a perfect match.
func (c *Controller) tuneForRate(rate float64, now time.Time) {
	if rate == 0 {
		return
	}
	if rate > ReferenceHeatRate {
		c.manipulateDown(now)
	} else if rate < ReferenceHeatRate {
		c.manipulateUp(now)
	}
}
