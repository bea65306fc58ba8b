package capture

import (
	"fmt"
	"iter"
)

// PropertyKind is the widget type of a property.
type PropertyKind string

const (
	PropertyList PropertyKind = "list"
	PropertyBool PropertyKind = "bool"
)

// PropertyOption is one entry of a list property.
type PropertyOption struct {
	Label string `yaml:"label" json:"label"`
	Value int    `yaml:"value" json:"value"`
}

// Property describes one editable setting.
type Property struct {
	Key     string           `yaml:"key" json:"key"`
	Label   string           `yaml:"label" json:"label"`
	Kind    PropertyKind     `yaml:"kind" json:"kind"`
	Options []PropertyOption `yaml:"options,omitempty" json:"options,omitempty"`
}

// Properties is the settings UI schema of a source.
type Properties struct {
	Items []Property `yaml:"properties" json:"properties"`
}

// Get returns the property with the given key.
func (p Properties) Get(key string) (Property, bool) {
	for _, item := range p.Items {
		if item.Key == key {
			return item, true
		}
	}
	return Property{}, false
}

// MonitorInfoFunc looks up a monitor by index.
type MonitorInfoFunc func(index int) (MonitorInfo, error)

// Monitors yields (index, description) for monitor 0, 1, 2, ... until lookup
// fails. The sequence can be ranged over any number of times and queries the
// lookup afresh each time.
func Monitors(lookup MonitorInfoFunc) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i := 0; ; i++ {
			info, err := lookup(i)
			if err != nil {
				return
			}
			if !yield(i, MonitorDescription(i, info)) {
				return
			}
		}
	}
}

// MonitorDescription formats a monitor for display, numbering from 1.
func MonitorDescription(index int, info MonitorInfo) string {
	return fmt.Sprintf("Monitor %d: %dx%d @ %d,%d", index+1, info.Width, info.Height, info.X, info.Y)
}

// BuildProperties assembles the schema for a monitor capture source.
func BuildProperties(lookup MonitorInfoFunc) Properties {
	monitors := Property{Key: KeyMonitor, Label: "Monitor", Kind: PropertyList}
	if lookup != nil {
		for i, desc := range Monitors(lookup) {
			monitors.Options = append(monitors.Options, PropertyOption{Label: desc, Value: i})
		}
	}

	return Properties{Items: []Property{
		monitors,
		{Key: KeyCaptureCursor, Label: "Capture Cursor", Kind: PropertyBool},
		{Key: KeyCaptureForegroundWindow, Label: "Capture Foreground Window", Kind: PropertyBool},
	}}
}
