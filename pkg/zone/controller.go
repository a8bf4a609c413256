package zone

import (
	"context"
	"sync"
	"time"

	"github.com/geNAZt/zoneheat/pkg/alarm"
	"github.com/geNAZt/zoneheat/pkg/api/v1/config"
	"github.com/geNAZt/zoneheat/pkg/arbiter"
	"github.com/geNAZt/zoneheat/pkg/gateway"
	"github.com/geNAZt/zoneheat/pkg/state"
	"github.com/sirupsen/logrus"
)

const (
	RecalcInterval = 10 * time.Second

	// SecurityMaxTemperature is the hard cutoff of the floor sensors. The
	// floor must never get warmer than this no matter what the room wants.
	SecurityMaxTemperature = 25.0

	// SecurityMaxRate trips when the floor warms faster than plausible
	// during normal operation, in °C per minute.
	SecurityMaxRate = 0.10

	// WindowOpenRate is the room cooling rate below which we assume heat is
	// escaping through an open window, in °C per minute.
	WindowOpenRate = -0.02

	// ReferenceHeatRate is the warming rate the adaptive tuning steers
	// towards while heating, in °C per minute.
	ReferenceHeatRate = 0.01

	RateWindow = 30 * time.Minute

	// AwayReduction is subtracted from the target while nobody is home.
	AwayReduction = 1.0

	// IgnorePresenceFor keeps a zone counting as occupied right after it
	// deliberately consumed surplus energy, so the warm-up is not cut short.
	IgnorePresenceFor = 6 * time.Minute

	MainsVoltage = 230.0

	alarmSecurityShutdown = "security-shutdown"
)

// Store persists zone records. Failures are never fatal to the control loop.
type Store interface {
	Save(entityID string, u Update) error
}

// Controller runs the duty-cycle state machine for one heating zone. It owns
// its Record exclusively and never actuates hardware directly while phase
// bound; starting heat goes through the arbiter's admission check.
type Controller struct {
	mutex sync.Mutex

	cfg    config.Zone
	rec    *Record
	gw     gateway.Gateway
	store  Store
	arb    *arbiter.Arbiter
	handle *arbiter.Handle
	alarms *alarm.ActiveAlarms

	now func() time.Time

	state               State
	heating             bool
	heatStartDeficit    float64
	ignorePresenceUntil time.Time

	readings     map[string]float64
	lastPresence bool
	havePresence bool
}

func NewController(cfg config.Zone, rec *Record, gw gateway.Gateway, store Store, arb *arbiter.Arbiter, alarms *alarm.ActiveAlarms) *Controller {
	c := &Controller{
		cfg:      cfg,
		rec:      rec,
		gw:       gw,
		store:    store,
		arb:      arb,
		alarms:   alarms,
		now:      time.Now,
		state:    StateIdle,
		readings: make(map[string]float64),
	}
	c.handle = arb.Register(cfg.Group, cfg.EntityID, cfg.Phase, cfg.RatedCurrentMA, c)
	return c
}

func (c *Controller) EntityID() string        { return c.cfg.EntityID }
func (c *Controller) Handle() *arbiter.Handle { return c.handle }

// Run drives the periodic recalculation until the context is cancelled, then
// makes sure the output is off.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(RecalcInterval)
	defer ticker.Stop()

	c.Recalc()
	for {
		select {
		case <-ticker.C:
			c.Recalc()
		case <-ctx.Done():
			c.Shutdown()
			return
		}
	}
}

func (c *Controller) Shutdown() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.heating {
		c.stopHeating(c.now())
	}
}

func (c *Controller) Recalc() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.recalcLocked(c.now())
}

func (c *Controller) recalcLocked(now time.Time) {
	c.refreshReadings()
	c.decide(now)
	c.syncMode()
}

// syncMode mirrors the machine's decision into the record. Off is only ever
// entered and left through an external mode change.
func (c *Controller) syncMode() {
	if c.rec.Mode == ModeOff {
		return
	}
	want := ModeIdle
	if c.heating {
		want = ModeHeat
	}
	if c.rec.Mode != want {
		c.rec.Mode = want
		c.persist(Update{Mode: &c.rec.Mode})
	}
}

// decide is the state machine. The checks run in strict priority order; the
// first one that matches decides the tick.
func (c *Controller) decide(now time.Time) {
	if c.rec.Mode == ModeOff {
		if c.heating {
			c.stopHeating(now)
		}
		c.state = StateOff
		return
	}

	if time.Unix(c.rec.HeatingHaltedUntil, 0).After(now) {
		if c.heating {
			c.stopHeating(now)
		}
		c.state = StateHalted
		return
	}

	if sec, ok := c.securityTemperature(); ok && sec > SecurityMaxTemperature {
		if c.alarms.Add(c.cfg.EntityID, alarmSecurityShutdown) {
			logrus.Warnf("zone %s: security sensor at %.1f°C, cutting heat", c.cfg.EntityID, sec)
		}
		if c.heating {
			c.stopHeating(now)
		}
		if c.cfg.Adaptive {
			c.manipulateDown(now)
		}
		c.state = StateSecurityShutdown
		return
	}
	if c.alarms.Clear(c.cfg.EntityID) {
		logrus.Infof("zone %s: security condition cleared", c.cfg.EntityID)
	}

	roomRate := c.roomRate(now)
	if roomRate < WindowOpenRate {
		if c.heating {
			logrus.Infof("zone %s: room cooling at %.3f°C/min, assuming open window", c.cfg.EntityID, roomRate)
			c.stopHeating(now)
		}
		c.state = StateWindowOpen
		return
	}

	if secRate := c.securityRate(now); secRate > SecurityMaxRate {
		logrus.Warnf("zone %s: floor warming at %.3f°C/min, cutting heat", c.cfg.EntityID, secRate)
		if c.heating {
			c.stopHeating(now)
		}
		c.state = StateSecurityShutdown
		return
	}

	target := c.effectiveTarget(now)
	room, ok := c.roomTemperature()
	if !ok {
		// No room reading yet. Leave the output alone and retry next tick.
		return
	}

	if room >= target {
		wasHeating := c.heating
		if c.heating {
			c.stopHeating(now)
		}
		if c.cfg.Adaptive && wasHeating {
			c.manipulateDown(now)
		}
		c.state = StateAtTarget
		return
	}

	if c.heating {
		if now.Sub(time.Unix(c.rec.HeatingStartedAt, 0)).Seconds() >= c.rec.DutyOnSeconds {
			c.stopHeating(now)
			c.state = StateHalted
			return
		}
		if c.cfg.Adaptive {
			c.tuneForRate(roomRate, now)
		}
		c.state = StateHeating
		return
	}

	if c.cfg.Adaptive {
		c.tuneForRate(roomRate, now)
	}
	if c.arb.Request(c.handle, c.wantedMA()) {
		c.startHeating(now, target)
		c.state = StateHeating
	} else {
		c.state = StateIdle
	}
}

func (c *Controller) startHeating(now time.Time, target float64) {
	if c.heating {
		return
	}
	c.heatStartDeficit = 0
	if room, ok := c.roomTemperature(); ok {
		c.heatStartDeficit = target - room
	}
	c.rec.HeatingStartedAt = now.Unix()
	c.heating = true
	if err := c.gw.SetOutput(c.cfg.Output, true); err != nil {
		logrus.Errorf("zone %s: turning output on: %v", c.cfg.EntityID, err)
	}
	c.persist(Update{HeatingStartedAt: &c.rec.HeatingStartedAt})
}

// stopHeating turns the output off and releases the phase capacity. If the
// duty-on interval has elapsed the off part of the slot starts now, whatever
// the reason for stopping was.
func (c *Controller) stopHeating(now time.Time) {
	if !c.heating {
		return
	}
	elapsed := now.Sub(time.Unix(c.rec.HeatingStartedAt, 0)).Seconds()
	if elapsed >= c.rec.DutyOnSeconds {
		c.rec.HeatingHaltedUntil = now.Add(time.Duration(c.rec.DutyOffSeconds * float64(time.Second))).Unix()
	}

	c.heating = false
	if err := c.gw.SetOutput(c.cfg.Output, false); err != nil {
		logrus.Errorf("zone %s: turning output off: %v", c.cfg.EntityID, err)
	}
	c.arb.Release(c.handle)

	c.accountEnergy(now, elapsed)
	c.persist(Update{
		HeatingHaltedUntil:  &c.rec.HeatingHaltedUntil,
		MeasuredCurrentAmps: &c.rec.MeasuredCurrentAmps,
		EnergyHistory:       c.rec.EnergyHistory,
	})
}

func (c *Controller) refreshReadings() {
	for _, id := range c.cfg.RoomSensors {
		if v, err := c.gw.Temperature(id); err == nil {
			c.readings[id] = v
		}
	}
	for _, id := range c.cfg.SecuritySensors {
		if v, err := c.gw.Temperature(id); err == nil {
			c.readings[id] = v
		}
	}
	if p, err := c.gw.Presence(c.cfg.PresenceSensor); err == nil {
		c.lastPresence = p
		c.havePresence = true
	}
	if c.cfg.CurrentSensor != "" {
		if amps, err := c.gw.Current(c.cfg.CurrentSensor); err == nil {
			c.rec.MeasuredCurrentAmps = amps
			c.arb.UpdateCurrent(c.handle, amps*1000)
		}
	}
}

func (c *Controller) roomTemperature() (float64, bool) {
	sum := float64(0)
	n := 0
	for _, id := range c.cfg.RoomSensors {
		if v, ok := c.readings[id]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (c *Controller) securityTemperature() (float64, bool) {
	max := float64(0)
	found := false
	for _, id := range c.cfg.SecuritySensors {
		if v, ok := c.readings[id]; ok {
			if !found || v > max {
				max = v
			}
			found = true
		}
	}
	return max, found
}

func (c *Controller) roomRate(now time.Time) float64 {
	sum := float64(0)
	n := 0
	for _, id := range c.cfg.RoomSensors {
		samples, err := c.gw.History(id, now.Add(-RateWindow))
		if err != nil {
			continue
		}
		sum += SampledRate(samples, now, RateWindow)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (c *Controller) securityRate(now time.Time) float64 {
	max := float64(0)
	for _, id := range c.cfg.SecuritySensors {
		samples, err := c.gw.History(id, now.Add(-RateWindow))
		if err != nil {
			continue
		}
		if r := SampledRate(samples, now, RateWindow); r > max {
			max = r
		}
	}
	return max
}

func (c *Controller) occupied(now time.Time) bool {
	if c.ignorePresenceUntil.After(now) {
		return true
	}
	return c.havePresence && c.lastPresence
}

func (c *Controller) effectiveTarget(now time.Time) float64 {
	target := c.rec.TargetTemperature
	if !c.occupied(now) {
		target -= AwayReduction
	}
	return target
}

func (c *Controller) wantedMA() float64 {
	if measured := c.rec.MeasuredCurrentAmps * 1000; measured > c.cfg.RatedCurrentMA {
		return measured
	}
	return c.cfg.RatedCurrentMA
}

func (c *Controller) persist(u Update) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(c.rec.EntityID, u); err != nil {
		logrus.Errorf("zone %s: persisting state: %v", c.rec.EntityID, err)
	}
}

// SetTarget handles an external target temperature change.
func (c *Controller) SetTarget(target float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.rec.SetTarget(target)
	c.persist(Update{TargetTemperature: &c.rec.TargetTemperature})
	c.recalcLocked(c.now())
}

// SetMode handles an external operating mode change.
func (c *Controller) SetMode(m Mode) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.rec.Mode = m
	c.persist(Update{Mode: &c.rec.Mode})
	c.recalcLocked(c.now())
}

// TurnOn is the arbiter's forced-on callback.
func (c *Controller) TurnOn() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	now := c.now()
	c.startHeating(now, c.effectiveTarget(now))
	c.state = StateHeating
}

// TurnOff is the arbiter's forced-off callback.
func (c *Controller) TurnOff() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.heating {
		c.stopHeating(c.now())
	}
	c.state = StateIdle
}

// CanBeDelayed reports whether this zone's draw can be postponed: nobody is
// home, or the room is close enough to its target.
func (c *Controller) CanBeDelayed() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	now := c.now()
	if !c.occupied(now) {
		return true
	}
	room, ok := c.roomTemperature()
	if !ok {
		return false
	}
	return c.effectiveTarget(now)-room < 0.5
}

// ConsumeSurplus opportunistically warms the zone while surplus power is
// available. The presence override keeps the follow-up ticks from cutting
// the warm-up short because nobody is home.
func (c *Controller) ConsumeSurplus() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.rec.Mode == ModeOff {
		return
	}
	now := c.now()
	c.ignorePresenceUntil = now.Add(IgnorePresenceFor)
	c.recalcLocked(now)
}

// Status returns a snapshot for publication.
func (c *Controller) Status() *state.Status {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	now := c.now()

	s := &state.Status{
		EntityID:            c.cfg.EntityID,
		State:               string(c.state),
		Mode:                string(c.rec.Mode),
		TargetTemperature:   state.Pointer(c.rec.TargetTemperature),
		EffectiveTarget:     state.Pointer(c.effectiveTarget(now)),
		DutyOnSeconds:       state.Pointer(c.rec.DutyOnSeconds),
		DutyOffSeconds:      state.Pointer(c.rec.DutyOffSeconds),
		MeasuredCurrentAmps: state.Pointer(c.rec.MeasuredCurrentAmps),
		Heating:             state.Pointer(c.heating),
		Occupied:            state.Pointer(c.occupied(now)),
		RoomRate:            state.Pointer(c.roomRate(now)),
	}
	if room, ok := c.roomTemperature(); ok {
		s.RoomTemperature = state.Pointer(room)
	}
	if sec, ok := c.securityTemperature(); ok {
		s.SecurityTemperature = state.Pointer(sec)
	}
	if c.rec.HeatingHaltedUntil > now.Unix() {
		s.HaltedUntil = state.Pointer(c.rec.HeatingHaltedUntil)
	}
	return s
}
