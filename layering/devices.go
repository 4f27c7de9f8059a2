package layering

import "slices"

// DeviceChain is the breakpoint inheritance order from the widest device to
// the narrowest. A narrower device inherits every value it leaves empty from
// the devices before it.
type DeviceChain struct {
	ordered []string
}

// NewDeviceChain builds a chain from devices listed widest first, dropping
// blanks and duplicates while keeping the first occurrence.
func NewDeviceChain(devices ...string) DeviceChain {
	ordered := make([]string, 0, len(devices))
	for _, device := range devices {
		if device == "" || slices.Contains(ordered, device) {
			continue
		}
		ordered = append(ordered, device)
	}
	return DeviceChain{ordered: ordered}
}

// Ordered returns the chain widest first.
func (c DeviceChain) Ordered() []string {
	return append([]string(nil), c.ordered...)
}

// Widest returns the first device (empty when the chain is empty).
func (c DeviceChain) Widest() string {
	if len(c.ordered) == 0 {
		return ""
	}
	return c.ordered[0]
}

// Lineage returns device followed by every wider device it inherits from,
// i.e. the layers ordered strongest to weakest. Unknown devices yield nil.
func (c DeviceChain) Lineage(device string) []string {
	idx := slices.Index(c.ordered, device)
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, idx+1)
	for i := idx; i >= 0; i-- {
		out = append(out, c.ordered[i])
	}
	return out
}

// Inherit walks the lineage of device and returns the first value that lookup
// reports as set, along with the device it came from.
func (c DeviceChain) Inherit(device string, lookup func(device string) (any, bool)) (any, string, bool) {
	for _, candidate := range c.Lineage(device) {
		if value, ok := lookup(candidate); ok {
			return value, candidate, true
		}
	}
	return nil, "", false
}
