package main

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/clock"
	"github.com/nerrad567/gray-logic-powerstrip/internal/gesture"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-powerstrip/internal/lifecycle"
	"github.com/nerrad567/gray-logic-powerstrip/internal/pairing"
	"github.com/nerrad567/gray-logic-powerstrip/internal/provisioning"
	"github.com/nerrad567/gray-logic-powerstrip/internal/remote"
	"github.com/nerrad567/gray-logic-powerstrip/internal/strip"
)

// remoteLink owns the broker connection and the bridge on top of it.
// It starts once the strip is provisioned and keeps retrying the initial
// connection in the background; paho handles reconnects after that.
type remoteLink struct {
	cfg        *config.Config
	strip      *strip.Strip
	pairings   *pairing.Manager
	controller *lifecycle.Controller
	dispatcher *gesture.Dispatcher
	clock      clock.Clock
	log        *logging.Logger

	mu      sync.Mutex
	creds   *provisioning.Credentials
	started bool
	client  *mqtt.Client
	bridge  *remote.Bridge

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newRemoteLink(cfg *config.Config, ps *strip.Strip, pairings *pairing.Manager,
	controller *lifecycle.Controller, dispatcher *gesture.Dispatcher, log *logging.Logger) *remoteLink {
	ctx, cancel := context.WithCancel(context.Background())
	return &remoteLink{
		cfg:        cfg,
		strip:      ps,
		pairings:   pairings,
		controller: controller,
		dispatcher: dispatcher,
		clock:      clock.Real(),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// setCredentials records the broker credentials applied on connect.
func (l *remoteLink) setCredentials(creds *provisioning.Credentials) {
	l.mu.Lock()
	l.creds = creds
	l.mu.Unlock()
}

// start is the lifecycle's provisioned hook. It returns at once; the
// connection is made in the background.
func (l *remoteLink) start(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.ctx.Err() != nil {
		return nil
	}
	l.started = true

	mqttCfg := l.cfg.MQTT
	if l.creds != nil {
		mqttCfg = l.creds.Apply(mqttCfg)
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.connect(mqttCfg)
	}()
	return nil
}

// connect dials the broker with exponential backoff, then starts the
// bridge. MaxAttempts of zero retries until shutdown.
func (l *remoteLink) connect(cfg config.MQTTConfig) {
	topics := mqtt.NewTopics(cfg.TopicPrefix, l.cfg.Device.ID)
	delay := time.Duration(cfg.Reconnect.InitialDelay) * time.Second
	maxDelay := time.Duration(cfg.Reconnect.MaxDelay) * time.Second
	if delay <= 0 {
		delay = time.Second
	}
	if maxDelay < delay {
		maxDelay = delay
	}

	for attempt := 1; ; attempt++ {
		client, err := mqtt.Connect(cfg, topics)
		if err == nil {
			if startErr := l.startBridge(client, cfg); startErr != nil {
				l.log.Error("starting remote bridge", "error", startErr)
				client.Close() //nolint:errcheck // Already failing
			}
			return
		}

		if cfg.Reconnect.MaxAttempts > 0 && attempt >= cfg.Reconnect.MaxAttempts {
			l.log.Error("MQTT unreachable, giving up", "attempts", attempt, "error", err)
			return
		}
		l.log.Warn("MQTT connect failed, retrying",
			"broker", cfg.Broker.Host,
			"attempt", attempt,
			"retry_in", delay,
			"error", err,
		)
		if sleepErr := l.clock.Sleep(l.ctx, delay); sleepErr != nil {
			return
		}
		delay = min(delay*2, maxDelay)
	}
}

func (l *remoteLink) startBridge(client *mqtt.Client, cfg config.MQTTConfig) error {
	client.SetLogger(l.log)

	lo, hi := l.strip.CheckIntervalRange()
	bridge, err := remote.NewBridge(remote.Options{
		Registry:  l.strip.Registry,
		Transport: client,
		Pairer:    l.pairings,
		Lifecycle: l.controller,
		Gestures:  l.dispatcher,
		Device: remote.DeviceInfo{
			ID:           l.cfg.Device.ID,
			Name:         l.cfg.AccessoryName(),
			Manufacturer: l.cfg.Device.Manufacturer,
			Model:        l.cfg.Device.Model,
			Firmware:     l.cfg.Device.Firmware,
		},
		QoS:             byte(cfg.QoS), //nolint:gosec // Validated to 0-2
		DiscoveryPrefix: cfg.DiscoveryPrefix,
		Ranges: map[string]remote.IntRange{
			strip.KeyCheckInterval: {Min: lo, Max: hi},
		},
	})
	if err != nil {
		return err
	}
	bridge.SetLogger(l.log)

	client.SetOnConnect(bridge.Reconnected)
	client.SetOnDisconnect(func(err error) {
		l.log.Warn("MQTT connection lost", "error", err)
	})
	l.strip.Registry.AddNotifier(bridge)

	if err := bridge.Start(l.ctx); err != nil {
		return err
	}

	l.mu.Lock()
	l.client = client
	l.bridge = bridge
	l.mu.Unlock()

	l.log.Info("remote bridge started",
		"broker", cfg.Broker.Host,
		"topic_base", client.Topics().Base(),
	)
	return nil
}

// close stops any pending connect, then the bridge and the connection.
func (l *remoteLink) close() {
	l.cancel()
	l.wg.Wait()

	l.mu.Lock()
	bridge, client := l.bridge, l.client
	l.mu.Unlock()

	if bridge != nil {
		bridge.Stop()
	}
	if client != nil {
		if err := client.Close(); err != nil {
			l.log.Error("error closing MQTT", "error", err)
		}
	}
}
