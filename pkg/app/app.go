package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/geNAZt/zoneheat/pkg/alarm"
	"github.com/geNAZt/zoneheat/pkg/api/v1/config"
	"github.com/geNAZt/zoneheat/pkg/arbiter"
	"github.com/geNAZt/zoneheat/pkg/gateway/mqttgw"
	"github.com/geNAZt/zoneheat/pkg/meter"
	"github.com/geNAZt/zoneheat/pkg/mqtt"
	"github.com/geNAZt/zoneheat/pkg/store"
	"github.com/geNAZt/zoneheat/pkg/web"
	"github.com/geNAZt/zoneheat/pkg/zone"
	"github.com/sirupsen/logrus"
)

// surplusThresholdW is the minimum exported power before deferred zones are
// offered a free heating slot.
const surplusThresholdW = 300.0

type App struct {
	wg     *sync.WaitGroup
	config *config.CliConfig

	gateway *mqttgw.Gateway
	zones   map[string]*zone.Controller
	arb     *arbiter.Arbiter
	alarms  *alarm.ActiveAlarms
	meters  *meter.Cache
}

func New(config *config.CliConfig) *App {
	return &App{
		wg:     &sync.WaitGroup{},
		config: config,
		zones:  make(map[string]*zone.Controller),
		arb:    arbiter.New(),
		alarms: alarm.New(),
		meters: meter.NewCache(),
	}
}

func (a *App) Start(ctx context.Context) error {
	site, err := config.LoadSite(a.config.Config)
	if err != nil {
		return err
	}

	if a.config.EmbeddedBroker {
		_, err = mqtt.Start(ctx, a.wg, a.config.BrokerListen)
		if err != nil {
			return fmt.Errorf("error starting embedded broker: %w", err)
		}
	}

	a.gateway = mqttgw.New(a.config.Broker, a.config.MQTTPrefix, "zoneheat")
	err = a.gateway.Connect()
	if err != nil {
		return fmt.Errorf("error connecting to broker %s: %w", a.config.Broker, err)
	}

	st, err := store.New(a.config.StateDir)
	if err != nil {
		return err
	}

	for _, zc := range site.Zone {
		rec, err := st.Load(zc.EntityID)
		if err == store.ErrNotFound {
			rec = zone.NewRecord(zc.EntityID, zc.TargetTemperature)
			err = nil
		}
		if err != nil {
			return fmt.Errorf("error loading state for zone %s: %w", zc.EntityID, err)
		}

		ctrl := zone.NewController(zc, rec, a.gateway, st, a.arb, a.alarms)
		a.zones[zc.EntityID] = ctrl
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			ctrl.Run(ctx)
		}()
	}
	logrus.Infof("started %d zone controllers", len(a.zones))

	for _, mc := range site.Meter {
		source, err := a.meterSource(mc)
		if err != nil {
			return err
		}
		poller := meter.NewPoller(mc, source, a.meters, a.gateway)
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			poller.Run(ctx)
		}()
	}

	if a.config.SurplusSensor != "" {
		a.wg.Add(1)
		go a.surplusLoop(ctx)
	}

	a.wg.Add(1)
	go a.statusLoop(ctx)

	web.New(a.config.ListenAddr, a.zones, a.arb, a.alarms, a.meters).Start(ctx, a.wg)
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
	if a.gateway != nil {
		a.gateway.Close()
	}
}

func (a *App) meterSource(mc config.Meter) (meter.Source, error) {
	switch mc.InterfaceType {
	case "modbus":
		return meter.NewModbus(mc.Address, byte(mc.SlaveID)), nil
	case "mbus":
		return meter.NewMbus(mc.Address), nil
	}
	return nil, fmt.Errorf("meter %q: unknown interfaceType %q", mc.ID, mc.InterfaceType)
}

// surplusLoop watches the exported-power sensor. When the site exports more
// than surplusThresholdW the arbiter offers every registered zone a chance to
// heat regardless of occupancy.
func (a *App) surplusLoop(ctx context.Context) {
	defer a.wg.Done()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			exported, err := a.gateway.Current(a.config.SurplusSensor)
			if err != nil {
				logrus.Debugf("no surplus reading from %s: %s", a.config.SurplusSensor, err)
				continue
			}
			if exported > surplusThresholdW {
				logrus.Infof("exporting %.0f W, offering surplus to zones", exported)
				a.arb.OfferSurplus()
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) statusLoop(ctx context.Context) {
	defer a.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.publishStatus()
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) publishStatus() {
	for id, ctrl := range a.zones {
		status := ctrl.Status()

		body, err := json.Marshal(status)
		if err != nil {
			logrus.Errorf("error marshaling status for %s: %s", id, err)
			continue
		}
		err = a.gateway.Publish(fmt.Sprintf("zone/%s/status", id), string(body))
		if err != nil {
			logrus.Errorf("error publishing status for %s: %s", id, err)
			continue
		}

		for key, value := range status.Map() {
			err = a.gateway.Publish(fmt.Sprintf("zone/%s/%s", id, key), fmt.Sprintf("%v", value))
			if err != nil {
				logrus.Errorf("error publishing %s for %s: %s", key, id, err)
			}
		}
	}
}
