package arbiter

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// PhaseCeilingMA is the maximum aggregate draw allowed on one electrical
// phase before the breaker is at risk.
const PhaseCeilingMA = 15500.0

// Arbiter admits or denies requests to draw current on a shared electrical
// phase. The ledger maps group -> phase -> consumer name -> granted mA and is
// only ever touched under the single mutex, so two concurrent requests can
// never both be granted against the same free capacity.
type Arbiter struct {
	mutex  sync.Mutex
	groups map[string]map[string]map[string]float64
	known  []*Handle
}

func New() *Arbiter {
	return &Arbiter{
		groups: make(map[string]map[string]map[string]float64),
	}
}

// Register stores the consumer callbacks for later forced activation. It does
// not reserve any capacity.
func (a *Arbiter) Register(group, name, phase string, currentMA float64, c Consumer) *Handle {
	h := &Handle{
		group:     group,
		name:      name,
		phase:     phase,
		currentMA: currentMA,
		consumer:  c,
	}
	a.mutex.Lock()
	a.known = append(a.known, h)
	a.mutex.Unlock()
	return h
}

// Request asks for wantedMA on the handle's phase. The whole
// sum-compare-commit runs under the ledger mutex. A denied consumer has its
// entry removed, never left stale. Consumers without a phase are not
// capacity-limited.
func (a *Arbiter) Request(h *Handle, wantedMA float64) bool {
	if h.phase == "" {
		return true
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	phases, ok := a.groups[h.group]
	if !ok {
		phases = make(map[string]map[string]float64)
		a.groups[h.group] = phases
	}
	entities, ok := phases[h.phase]
	if !ok {
		entities = make(map[string]float64)
		phases[h.phase] = entities
	}

	used := float64(0)
	for name, ma := range entities {
		if name != h.name {
			used += ma
		}
	}

	if used+wantedMA > PhaseCeilingMA {
		delete(entities, h.name)
		logrus.Infof("%s wanted %.0f mA on phase %s in group %s but only %.0f mA free", h.name, wantedMA, h.phase, h.group, PhaseCeilingMA-used)
		return false
	}

	entities[h.name] = wantedMA
	h.currentMA = wantedMA
	return true
}

// Release gives the handle's granted capacity back and prunes empty ledger
// entries.
func (a *Arbiter) Release(h *Handle) {
	if h.phase == "" {
		return
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.releaseLocked(h)
}

func (a *Arbiter) releaseLocked(h *Handle) {
	phases, ok := a.groups[h.group]
	if !ok {
		return
	}
	entities, ok := phases[h.phase]
	if !ok {
		return
	}
	delete(entities, h.name)
	if len(entities) == 0 {
		delete(phases, h.phase)
		if len(phases) == 0 {
			delete(a.groups, h.group)
		}
	}
}

// UpdateCurrent records a revised live draw reported by the consumer. Only
// upward revisions are applied, and no eviction happens here; the new figure
// is used at the next Request.
func (a *Arbiter) UpdateCurrent(h *Handle, ma float64) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if ma <= h.currentMA {
		return
	}
	h.currentMA = ma

	if phases, ok := a.groups[h.group]; ok {
		if entities, ok := phases[h.phase]; ok {
			if _, held := entities[h.name]; held {
				entities[h.name] = ma
			}
		}
	}
}

// ForceOn invokes the consumer's on-callback directly, bypassing admission.
func (a *Arbiter) ForceOn(h *Handle) {
	h.consumer.TurnOn()
}

// ForceOff invokes the consumer's off-callback without taking the ledger
// lock first, so it can never wait behind an admission in flight. The held
// capacity is released afterwards.
func (a *Arbiter) ForceOff(h *Handle) {
	h.consumer.TurnOff()
	a.Release(h)
}

// Deferrable asks the consumer whether its draw can be postponed.
func (a *Arbiter) Deferrable(h *Handle) bool {
	return h.consumer.CanBeDelayed()
}

// OfferSurplus tells every registered consumer that spare capacity is
// available right now. Callbacks run outside the ledger lock.
func (a *Arbiter) OfferSurplus() {
	a.mutex.Lock()
	known := make([]*Handle, len(a.known))
	copy(known, a.known)
	a.mutex.Unlock()

	for _, h := range known {
		h.consumer.ConsumeSurplus()
	}
}

// Snapshot returns a copy of the ledger keyed by "group/phase".
func (a *Arbiter) Snapshot() map[string]map[string]float64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make(map[string]map[string]float64)
	for group, phases := range a.groups {
		for phase, entities := range phases {
			entry := make(map[string]float64, len(entities))
			for name, ma := range entities {
				entry[name] = ma
			}
			out[group+"/"+phase] = entry
		}
	}
	return out
}
