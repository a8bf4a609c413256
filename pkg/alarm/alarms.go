package alarm

import "sync"

// ActiveAlarms tracks the currently active alarms per zone.
type ActiveAlarms struct {
	active map[string][]string
	sync.RWMutex
}

func New() *ActiveAlarms {
	return &ActiveAlarms{
		active: make(map[string][]string),
	}
}

// Add adds an alarm for a zone and returns true if it was added. Returns
// false if it is already active.
func (a *ActiveAlarms) Add(zone, alarm string) bool {
	a.Lock()
	defer a.Unlock()
	for _, active := range a.active[zone] {
		if active == alarm {
			return false
		}
	}
	a.active[zone] = append(a.active[zone], alarm)
	return true
}

// Clear removes all alarms of one zone and returns true if any were active.
func (a *ActiveAlarms) Clear(zone string) bool {
	a.Lock()
	defer a.Unlock()
	if len(a.active[zone]) == 0 {
		return false
	}
	delete(a.active, zone)
	return true
}

// Active returns a copy of all active alarms keyed by zone.
func (a *ActiveAlarms) Active() map[string][]string {
	a.RLock()
	defer a.RUnlock()
	out := make(map[string][]string, len(a.active))
	for zone, alarms := range a.active {
		cp := make([]string, len(alarms))
		copy(cp, alarms)
		out[zone] = cp
	}
	return out
}
