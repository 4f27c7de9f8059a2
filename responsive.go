package controls

import (
	"errors"
	"slices"
	"strings"

	"github.com/goliatone/go-controls/layering"
)

// Scratch keys understood by the responsive expander.
const (
	keyDevices           = "devices"
	keyDeviceArgs        = "device_args"
	keyMinAffectedDevice = "min_affected_device"
	defaultSuffix        = "_default"
)

// AddResponsiveControl declares one control per breakpoint: id for desktop,
// id_tablet and id_mobile for the narrower devices. args may carry
//
//	devices              subset of devices to expand
//	device_args          per-device args merged over the base args
//	min_affected_device  per-device lower bound stored as responsive.min
//	<device>_default     per-device default value
//
// AtPosition applies to the whole expansion, so variants stay in device order.
func (s *Stack) AddResponsiveControl(id string, args Args, opts ...AddOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := applyAddOptions(opts)
	if o.position != nil {
		if err := s.startInjection(*o.position); err != nil {
			return err
		}
		defer func() { _ = s.state.closeInjection() }()
		o.position = nil
	}
	return s.expandResponsive(id, args, func(key string, variant Args) error {
		if o.overwrite && s.store.Has(key) {
			return s.updateControl(key, variant, updateOptions{recursiveSet: true})
		}
		return s.addControl(key, variant, o)
	})
}

// UpdateResponsiveControl patches every stored breakpoint variant of id.
// Variants left out by a devices subset are skipped; at least one variant
// must exist.
func (s *Stack) UpdateResponsiveControl(id string, args Args, opts ...UpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := applyUpdateOptions(opts)
	o.recursiveSet = true
	updated := 0
	err := s.expandResponsive(id, args, func(key string, variant Args) error {
		if !s.store.Has(key) {
			return nil
		}
		updated++
		return s.updateControl(key, variant, o)
	})
	if err != nil {
		return err
	}
	if updated == 0 {
		return usageError("update_responsive_control", id, ErrControlNotFound)
	}
	return nil
}

// RemoveResponsiveControl removes all breakpoint variants of id. Missing
// variants are skipped.
func (s *Stack) RemoveResponsiveControl(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, device := range Devices() {
		err := s.removeControl(ResponsiveKey(id, device))
		if err != nil && !errors.Is(err, ErrControlNotFound) {
			return err
		}
	}
	return nil
}

// ResponsiveKey returns the stored key of the device variant of id.
func ResponsiveKey(id, device string) string {
	if device == "" || device == DeviceDesktop {
		return id
	}
	return id + "_" + device
}

// ExpandResponsive computes the per-device args of a responsive declaration
// without touching any stack, keyed by stored control key in device order.
func ExpandResponsive(id string, args Args) ([]string, map[string]Args, error) {
	var keys []string
	variants := map[string]Args{}
	err := expandResponsive(id, args, func(key string, variant Args) error {
		keys = append(keys, key)
		variants[key] = variant
		return nil
	})
	return keys, variants, err
}

func (s *Stack) expandResponsive(id string, args Args, apply func(key string, variant Args) error) error {
	if id == "" {
		return usageError("add_responsive_control", id, ErrEmptyName)
	}
	return expandResponsive(id, args, apply)
}

func expandResponsive(id string, args Args, apply func(key string, variant Args) error) error {
	base := Args(layering.CloneMap(map[string]any(args)))
	if base == nil {
		base = Args{}
	}

	devices := Devices()
	if raw, ok := base[keyDevices]; ok {
		wanted, err := asStrings(keyDevices, raw)
		if err != nil {
			return usageError("add_responsive_control", id, err)
		}
		devices = slices.DeleteFunc(devices, func(device string) bool {
			return !slices.Contains(wanted, device)
		})
		responsive, _ := base[keyResponsive].(map[string]any)
		responsive = layering.Overlay(map[string]any{keyDevices: append([]string(nil), devices...)}, responsive)
		base[keyResponsive] = responsive
		delete(base, keyDevices)
	}

	if value, ok := base[keyDefault]; ok {
		base[DeviceDesktop+defaultSuffix] = value
		delete(base, keyDefault)
	}

	prefixTemplate, _ := base[keyPrefixClass].(string)
	for _, device := range devices {
		variant := Args(layering.CloneMap(map[string]any(base)))
		if variant == nil {
			variant = Args{}
		}

		if deviceArgs, ok := variant[keyDeviceArgs].(map[string]any); ok {
			if overrides, ok := deviceArgs[device].(map[string]any); ok && len(overrides) > 0 {
				variant = Args(layering.Overlay(overrides, variant))
			}
		}
		delete(variant, keyDeviceArgs)

		if prefixTemplate != "" {
			replacement := ""
			if device != DeviceDesktop {
				replacement = "-" + device
			}
			variant[keyPrefixClass] = strings.Replace(prefixTemplate, "%s", replacement, 1)
		}

		responsive, _ := variant[keyResponsive].(map[string]any)
		responsive = layering.Overlay(map[string]any{"max": device}, responsive)
		if minDevices, ok := variant[keyMinAffectedDevice].(map[string]any); ok {
			if lower, ok := minDevices[device].(string); ok && lower != "" {
				responsive["min"] = lower
			}
		}
		delete(variant, keyMinAffectedDevice)
		variant[keyResponsive] = responsive

		if value, ok := variant[device+defaultSuffix]; ok {
			variant[keyDefault] = value
		}
		for _, scratch := range Devices() {
			delete(variant, scratch+defaultSuffix)
		}

		if err := apply(ResponsiveKey(id, device), variant); err != nil {
			return err
		}
	}
	return nil
}
