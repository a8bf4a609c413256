package meter

import (
	"context"
	"fmt"
	"time"

	"github.com/geNAZt/zoneheat/pkg/api/v1/config"
	"github.com/sirupsen/logrus"
)

// Sink receives polled readings as named sensor values.
type Sink interface {
	PublishSensor(id string, value float64) error
}

// Poller reads one configured meter on an interval and republishes its
// per-phase currents and power as sensor values so zones can bind to them.
type Poller struct {
	cfg    config.Meter
	source Source
	cache  *Cache
	sink   Sink
}

func NewPoller(cfg config.Meter, source Source, cache *Cache, sink Sink) *Poller {
	return &Poller{
		cfg:    cfg,
		source: source,
		cache:  cache,
		sink:   sink,
	}
}

func (p *Poller) Run(ctx context.Context) {
	interval := time.Duration(p.cfg.IntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logrus.Infof("starting meter poller for %s every %s", p.cfg.ID, interval)
	p.poll()
	for {
		select {
		case <-ticker.C:
			p.poll()
		case <-ctx.Done():
			logrus.Infof("stopping meter poller for %s", p.cfg.ID)
			return
		}
	}
}

func (p *Poller) poll() {
	id := p.cfg.PrimaryID
	if id == "" {
		id = p.cfg.ID
	}
	data, err := p.source.ReadValues(p.cfg.Model, id)
	if err != nil {
		logrus.Errorf("error reading meter %s: %s", p.cfg.ID, err)
		return
	}
	data.Id = p.cfg.ID
	p.cache.Set(data)

	for phase, amps := range data.PhaseAmps() {
		err = p.sink.PublishSensor(fmt.Sprintf("%s_%s_a", p.cfg.ID, phase), amps)
		if err != nil {
			logrus.Errorf("error publishing meter %s phase %s: %s", p.cfg.ID, phase, err)
		}
	}
	err = p.sink.PublishSensor(fmt.Sprintf("%s_w", p.cfg.ID), data.Current_W)
	if err != nil {
		logrus.Errorf("error publishing meter %s power: %s", p.cfg.ID, err)
	}
}
