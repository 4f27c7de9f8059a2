package controls

import (
	"encoding/json"
)

// TraceSource names where a layer of a settings trace comes from.
type TraceSource string

// Layers consulted when a setting is resolved, strongest first.
const (
	SourceDynamic     TraceSource = "dynamic"
	SourceRaw         TraceSource = "raw"
	SourceDefault     TraceSource = "default"
	SourceTypeDefault TraceSource = "type_default"
	SourceInherited   TraceSource = "inherited"
)

// Trace captures provenance information for one setting: every layer that was
// consulted while resolving it and the value the entity settled on.
type Trace struct {
	Entity string       `json:"entity,omitempty"`
	Path   string       `json:"path"`
	Value  any          `json:"value,omitempty"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a specific layer contributed to a traced setting.
type Provenance struct {
	Source TraceSource `json:"source"`
	// Key is the raw data key or the stored control key the layer was read from.
	Key   string `json:"key"`
	Value any    `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// Winner returns the strongest layer that held a value.
func (t Trace) Winner() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
