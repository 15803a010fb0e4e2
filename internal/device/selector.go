package device

import (
	"github.com/specialistvlad/memgrid/internal/rterr"
)

// Selector picks the single device a queue is bound to.
type Selector interface {
	Select(devices []Device) (Device, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(devices []Device) (Device, error)

func (f SelectorFunc) Select(devices []Device) (Device, error) { return f(devices) }

// Default prefers the first accelerator and falls back to the first device.
var Default Selector = SelectorFunc(func(devices []Device) (Device, error) {
	for _, d := range devices {
		if !d.Unified() {
			return d, nil
		}
	}
	if len(devices) > 0 {
		return devices[0], nil
	}
	return nil, rterr.New(rterr.KindDevice, "no devices available")
})

// ByName selects the device with the given name.
func ByName(name string) Selector {
	return SelectorFunc(func(devices []Device) (Device, error) {
		for _, d := range devices {
			if d.Name() == name {
				return d, nil
			}
		}
		return nil, rterr.Newf(rterr.KindDevice, "no device named %q", name)
	})
}

// ByKind selects the first device of the given kind.
func ByKind(k Kind) Selector {
	return SelectorFunc(func(devices []Device) (Device, error) {
		for _, d := range devices {
			if d.Kind() == k {
				return d, nil
			}
		}
		return nil, rterr.Newf(rterr.KindDevice, "no %s device", k)
	})
}
