package contract

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ToggleSignal is learned metadata for a boolean comparison toggle.
type ToggleSignal struct {
	Label string `yaml:"label" json:"label,omitempty"`
}

// SliderSignal is learned metadata for a numeric comparison slider. Min and
// Max are strings so "auto" can be distinguished from a literal bound.
type SliderSignal struct {
	Type     string `yaml:"type" json:"type,omitempty"`
	Label    string `yaml:"label" json:"label,omitempty"`
	Unit     string `yaml:"unit" json:"unit,omitempty"`
	Decimals int    `yaml:"decimals" json:"decimals,omitempty"`
	Min      string `yaml:"min" json:"min,omitempty"`
	Max      string `yaml:"max" json:"max,omitempty"`
}

// LearnedSignals carries optional learned inputs to compilation: widget
// metadata, tooltip hints, explicit option lists, and sampled canonical
// values with their observed fill rates.
type LearnedSignals struct {
	Toggles        map[string]ToggleSignal `yaml:"toggles"`
	Sliders        map[string]SliderSignal `yaml:"sliders"`
	Comparisons    map[string]string       `yaml:"comparisons"`
	Tooltips       map[string]string       `yaml:"tooltips"`
	Options        map[string][]string     `yaml:"options"`
	Samples        map[string][]string     `yaml:"samples"`
	FillRates      map[string]float64      `yaml:"fill_rates"`
	CollectSamples bool                    `yaml:"collect_samples"`
}

// LoadLearnedSignals parses a learned-signals YAML file. A missing file is
// not an error: compilation proceeds without learned inputs.
func LoadLearnedSignals(path string) (*LearnedSignals, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "contract: read signals %s", path)
	}
	var s LearnedSignals
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "contract: parse signals %s", path)
	}
	return &s, nil
}
