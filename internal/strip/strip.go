package strip

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/gesture"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-powerstrip/internal/output"
)

// Characteristic keys besides the outlets. The keys double as persistence
// keys, so renaming one orphans its stored value.
const (
	KeyPreserveState = "preserve-state"
	KeyCheckInterval = "check-interval"
	KeyOTATrigger    = "ota-trigger"

	KeyName         = "name"
	KeyManufacturer = "manufacturer"
	KeyModel        = "model"
	KeySerial       = "serial"
	KeyFirmware     = "firmware-revision"
)

// UpdateRequester asks the firmware update service to check for an update.
// RequestUpdate runs with the registry locked and must return immediately.
type UpdateRequester interface {
	RequestUpdate()
}

// UpdateRequesterFunc adapts a function to UpdateRequester.
type UpdateRequesterFunc func()

// RequestUpdate calls f.
func (f UpdateRequesterFunc) RequestUpdate() { f() }

// Strip is the wired accessory: its registry, the relays behind the
// outlets and the indicator LED.
type Strip struct {
	Registry  *characteristic.Registry
	Outlets   []*output.Relay
	Indicator *output.Relay

	cfg    *config.Config
	driver output.Driver
}

// New opens the outlet and indicator lines on driver and registers every
// characteristic with its default. Outputs are opened off; the lifecycle
// controller drives the restored values at boot.
//
// On error every line already opened is released.
func New(cfg *config.Config, driver output.Driver, updates UpdateRequester) (*Strip, error) {
	s := &Strip{
		Registry: characteristic.NewRegistry(),
		cfg:      cfg,
		driver:   driver,
	}
	if err := s.build(updates); err != nil {
		return nil, errors.Join(err, driver.Close())
	}
	return s, nil
}

func (s *Strip) build(updates UpdateRequester) error {
	for _, o := range s.cfg.Outlets {
		relay, err := s.driver.Open(o.ID, o.Pin, o.Inverted, false)
		if err != nil {
			return fmt.Errorf("opening outlet %s: %w", o.ID, err)
		}
		s.Outlets = append(s.Outlets, relay)

		label := o.Label
		if label == "" {
			label = o.ID
		}
		if err := s.Registry.Register(characteristic.Definition{
			ID:        o.ID,
			Label:     label,
			Default:   characteristic.BoolValue(false),
			Persisted: true,
			Output:    relay,
		}); err != nil {
			return err
		}
	}

	indicator, err := s.driver.Open("indicator", s.cfg.GPIO.Indicator.Pin, s.cfg.GPIO.Indicator.Inverted, false)
	if err != nil {
		return fmt.Errorf("opening indicator: %w", err)
	}
	s.Indicator = indicator

	for _, def := range s.definitions(updates) {
		if err := s.Registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// definitions returns the non-outlet characteristics.
func (s *Strip) definitions(updates UpdateRequester) []characteristic.Definition {
	u := s.cfg.Updates
	name := s.cfg.AccessoryName()
	info := func(id, label, value string) characteristic.Definition {
		return characteristic.Definition{
			ID:       id,
			Label:    label,
			Default:  characteristic.StringValue(value),
			ReadOnly: true,
		}
	}

	return []characteristic.Definition{
		{
			ID:        KeyPreserveState,
			Label:     "Preserve State",
			Default:   characteristic.BoolValue(s.cfg.Persistence.PreserveStateDefault),
			Persisted: true,
		},
		{
			ID:        KeyCheckInterval,
			Label:     "Update Check Interval",
			Default:   characteristic.IntValue(u.CheckIntervalDefault),
			Persisted: true,
			Setter:    characteristic.ClampInt(u.CheckIntervalMin, u.CheckIntervalMax),
		},
		{
			ID:      KeyOTATrigger,
			Label:   "Firmware Update",
			Default: characteristic.BoolValue(false),
			Setter:  otaTrigger(updates),
		},
		info(KeyName, "Name", name),
		info(KeyManufacturer, "Manufacturer", s.cfg.Device.Manufacturer),
		info(KeyModel, "Model", s.cfg.Device.Model),
		// The serial mirrors the accessory name so every strip is unique
		// even when the configured serial is shared.
		info(KeySerial, "Serial Number", name),
		info(KeyFirmware, "Firmware Revision", s.cfg.Device.Firmware),
	}
}

// otaTrigger forwards a true write to the update service and snaps the
// value back to false.
func otaTrigger(updates UpdateRequester) characteristic.Setter {
	return func(_, proposed characteristic.Value) (characteristic.Value, error) {
		if proposed.Bool() && updates != nil {
			updates.RequestUpdate()
		}
		return characteristic.BoolValue(false), nil
	}
}

// Bind installs the default gesture bindings on the primary control and
// every configured button, then applies the configured overrides.
func (s *Strip) Bind(d *gesture.Dispatcher) error {
	d.BindDefaults(gesture.PrimaryControl)
	for _, b := range s.cfg.Buttons {
		if b.Control != gesture.PrimaryControl {
			d.BindDefaults(b.Control)
		}
		overrides := gesture.Overrides{
			gesture.SinglePress:   b.SinglePress,
			gesture.DoublePress:   b.DoublePress,
			gesture.LongPress:     b.LongPress,
			gesture.VeryLongPress: b.VeryLongPress,
		}
		if err := s.checkTargets(overrides); err != nil {
			return fmt.Errorf("button %s: %w", b.Control, err)
		}
		if err := d.ApplyOverrides(b.Control, overrides); err != nil {
			return fmt.Errorf("button %s: %w", b.Control, err)
		}
	}
	return nil
}

// checkTargets rejects toggle actions naming an outlet that does not exist.
func (s *Strip) checkTargets(o gesture.Overrides) error {
	for _, name := range o {
		target, ok := strings.CutPrefix(name, "toggle:")
		if !ok {
			continue
		}
		if !s.hasOutlet(target) {
			return fmt.Errorf("%w: %q", ErrUnknownOutlet, target)
		}
	}
	return nil
}

func (s *Strip) hasOutlet(id string) bool {
	for _, o := range s.cfg.Outlets {
		if o.ID == id {
			return true
		}
	}
	return false
}

// CheckIntervalRange returns the bounds of the check-interval entry.
func (s *Strip) CheckIntervalRange() (lo, hi int) {
	return s.cfg.Updates.CheckIntervalMin, s.cfg.Updates.CheckIntervalMax
}

// Close releases every output line.
func (s *Strip) Close() error {
	return s.driver.Close()
}
