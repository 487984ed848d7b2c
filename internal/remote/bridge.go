package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/gesture"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the Bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Transport publishes and subscribes on the broker. *mqtt.Client
// satisfies it.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Topics() mqtt.Topics
}

// Pairer authorises controllers.
type Pairer interface {
	Pair(ctx context.Context, controllerID, setupCode string) error
	IsPaired(ctx context.Context) (bool, error)
}

// Lifecycle receives pairing, identify and reset events.
// *lifecycle.Controller satisfies it.
type Lifecycle interface {
	Paired(ctx context.Context) error
	RequestFactoryReset(reason string)
	Identify()
}

// GestureSink receives classified gestures. *gesture.Dispatcher satisfies
// it.
type GestureSink interface {
	Dispatch(g gesture.Gesture)
}

// Options configures a Bridge.
type Options struct {
	Registry  *characteristic.Registry
	Transport Transport
	Pairer    Pairer
	Lifecycle Lifecycle
	Gestures  GestureSink

	Device DeviceInfo
	QoS    byte

	// DiscoveryPrefix enables Home Assistant discovery when non-empty.
	DiscoveryPrefix string

	// Ranges bounds int characteristics in discovery.
	Ranges map[string]IntRange
}

// pairRequest is the JSON body of a pairing request.
type pairRequest struct {
	ControllerID string `json:"controller_id"`
	SetupCode    string `json:"setup_code"`
}

// Bridge exposes the characteristic registry over MQTT.
//
// Inbound messages are handled on the transport's delivery goroutine and
// go straight into the registry, dispatcher or lifecycle controller.
// Outbound state never blocks a registry mutation: Notify queues the value
// and a publisher goroutine sends it retained on the state topic.
//
// Values are only published once a controller is paired; pairing pushes
// the full state.
type Bridge struct {
	opts      Options
	registry  *characteristic.Registry
	transport Transport
	topics    mqtt.Topics

	queue  *queue
	paired atomic.Bool

	ctx       context.Context
	ctxCancel context.CancelFunc
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once

	logger Logger
}

// NewBridge creates a bridge. Call Start to begin operation.
func NewBridge(opts Options) (*Bridge, error) {
	var missing []string
	if opts.Registry == nil {
		missing = append(missing, "registry")
	}
	if opts.Transport == nil {
		missing = append(missing, "transport")
	}
	if opts.Pairer == nil {
		missing = append(missing, "pairer")
	}
	if opts.Lifecycle == nil {
		missing = append(missing, "lifecycle")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, missing)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		opts:      opts,
		registry:  opts.Registry,
		transport: opts.Transport,
		topics:    opts.Transport.Topics(),
		queue:     newQueue(),
		ctx:       ctx,
		ctxCancel: cancel,
		done:      make(chan struct{}),
		logger:    noopLogger{},
	}, nil
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Notify queues a committed value for publication. It never blocks and is
// safe to call with the registry locked.
func (b *Bridge) Notify(id string, v characteristic.Value) {
	if !b.paired.Load() {
		return
	}
	b.queue.push(id, v)
}

// Paired reports whether a controller has been paired.
func (b *Bridge) Paired() bool {
	return b.paired.Load()
}

// Start subscribes to the command topics, publishes discovery and starts
// the publisher. When a controller is already paired the lifecycle
// controller is told so, which publishes the full state.
func (b *Bridge) Start(ctx context.Context) error {
	var err error
	b.startOnce.Do(func() {
		err = b.start(ctx)
	})
	return err
}

func (b *Bridge) start(ctx context.Context) error {
	qos := b.opts.QoS
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{b.topics.AllCharacteristicSets(), b.handleSet},
		{b.topics.AllButtonGestures(), b.handleGesture},
		{b.topics.Pair(), b.handlePair},
		{b.topics.Identify(), b.handleIdentify},
		{b.topics.SystemReset(), b.handleReset},
	}
	for _, s := range subs {
		if err := b.transport.Subscribe(s.topic, qos, s.handler); err != nil {
			return fmt.Errorf("subscribe to %s: %w", s.topic, err)
		}
	}

	if err := b.publishDiscovery(); err != nil {
		b.logger.Warn("discovery not published", "error", err)
	}

	b.wg.Add(1)
	go b.publishLoop()

	paired, err := b.opts.Pairer.IsPaired(ctx)
	if err != nil {
		b.logger.Error("reading pairings", "error", err)
	}
	if paired {
		b.markPaired(ctx)
	}

	b.logger.Info("remote bridge started", "base", b.topics.Base(), "paired", paired)
	return nil
}

// Reconnected republishes every value after the transport reconnects, so
// retained state survives a broker restart. It is a no-op until paired.
func (b *Bridge) Reconnected() {
	if !b.paired.Load() {
		return
	}
	b.registry.NotifyAll()
}

// Stop halts the publisher. Values still queued are dropped.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.ctxCancel()
		b.wg.Wait()
		b.logger.Info("remote bridge stopped")
	})
}

func (b *Bridge) markPaired(ctx context.Context) {
	b.paired.Store(true)
	if err := b.opts.Lifecycle.Paired(ctx); err != nil {
		b.logger.Warn("pairing not applied", "error", err)
	}
}

func (b *Bridge) publishLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case <-b.queue.ready:
			b.publishPending()
		}
	}
}

// publishPending sends everything queued. A failed publish is dropped:
// the transport is down and Reconnected republishes the full state.
func (b *Bridge) publishPending() {
	for _, s := range b.queue.drain() {
		topic := b.topics.CharacteristicState(s.ID)
		if err := b.transport.Publish(topic, encodeState(s.Value), b.opts.QoS, true); err != nil {
			b.logger.Debug("state not published", "id", s.ID, "error", err)
		}
	}
}

// handleSet applies a remote write. Unparseable values echo the current
// value so the controller's view snaps back.
func (b *Bridge) handleSet(topic string, payload []byte) error {
	id, ok := b.topics.ParseCharacteristicSet(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	if !b.paired.Load() {
		return fmt.Errorf("%w: write to %s", ErrNotPaired, id)
	}

	current, err := b.registry.Get(id)
	if err != nil {
		return err
	}
	v, err := characteristic.Parse(current.Kind(), string(payload))
	if err != nil {
		b.registry.Notify(id) //nolint:errcheck // id was just resolved
		return err
	}
	if _, err := b.registry.Set(id, v); err != nil {
		return fmt.Errorf("set %s: %w", id, err)
	}
	return nil
}

func (b *Bridge) handleGesture(topic string, payload []byte) error {
	control, ok := b.topics.ParseButtonGesture(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	kind, err := gesture.ParseKind(string(payload))
	if err != nil {
		return err
	}
	if b.opts.Gestures == nil {
		return nil
	}
	b.opts.Gestures.Dispatch(gesture.Gesture{Control: control, Kind: kind})
	return nil
}

func (b *Bridge) handlePair(_ string, payload []byte) error {
	var req pairRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := b.opts.Pairer.Pair(b.ctx, req.ControllerID, req.SetupCode); err != nil {
		b.logger.Warn("pairing rejected", "controller_id", req.ControllerID, "error", err)
		return nil
	}
	b.logger.Info("controller paired", "controller_id", req.ControllerID)
	b.markPaired(b.ctx)
	return nil
}

// handleIdentify is honoured before pairing so an installer can find the
// strip.
func (b *Bridge) handleIdentify(string, []byte) error {
	b.opts.Lifecycle.Identify()
	return nil
}

func (b *Bridge) handleReset(_ string, payload []byte) error {
	if strings.TrimSpace(string(payload)) != payloadReset {
		return fmt.Errorf("%w: reset needs %q", ErrInvalidPayload, payloadReset)
	}
	if !b.paired.Load() {
		return fmt.Errorf("%w: factory reset", ErrNotPaired)
	}
	b.opts.Lifecycle.RequestFactoryReset("remote")
	return nil
}
