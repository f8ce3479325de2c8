package camera

import (
	"fmt"
	"regexp"
	"sort"
)

// Model tags a device family. Capability data is looked up by model.
type Model string

// Known models.
const (
	ModelR200 Model = "r200"
	ModelF200 Model = "f200"
)

// ModelProfile is the static capability row of a device model.
type ModelProfile struct {
	Model         Model
	Name          string
	SerialPattern *regexp.Regexp
	OptionRanges  []OptionRange
	Options       map[Option]OptionSpec
	Modes         map[StreamKind][]StreamMode
	Presets       map[StreamKind]map[Preset]StreamMode
	// StereoPair marks models whose infrared and infrared2 sensors form a
	// rigid stereo pair with identical mode tables.
	StereoPair bool
}

// SupportsOption reports whether o falls in one of the profile's ranges.
func (p *ModelProfile) SupportsOption(o Option) bool {
	for _, r := range p.OptionRanges {
		if r.Contains(o) {
			return true
		}
	}
	return false
}

// Validate checks the internal consistency of the profile.
func (p *ModelProfile) Validate() error {
	if p.Model == "" {
		return fmt.Errorf("profile has no model tag")
	}
	if p.SerialPattern == nil {
		return fmt.Errorf("model %s: missing serial pattern", p.Model)
	}
	for _, r := range p.OptionRanges {
		if !r.First.IsValid() || !r.Last.IsValid() || r.First > r.Last {
			return fmt.Errorf("model %s: invalid option range %s..%s", p.Model, r.First, r.Last)
		}
		for o := r.First; o <= r.Last; o++ {
			if _, ok := p.Options[o]; !ok {
				return fmt.Errorf("model %s: option %s is in range but has no spec", p.Model, o)
			}
		}
	}
	for o, spec := range p.Options {
		if !p.SupportsOption(o) {
			return fmt.Errorf("model %s: option %s has a spec but lies outside every range", p.Model, o)
		}
		if !spec.Domain.Contains(spec.Default) {
			return fmt.Errorf("model %s: default %v of %s outside its domain", p.Model, spec.Default, o)
		}
	}
	for kind, presets := range p.Presets {
		for preset, mode := range presets {
			if !containsMode(p.Modes[kind], mode) {
				return fmt.Errorf("model %s: preset %s of %s resolves to unlisted mode %s", p.Model, preset, kind, mode)
			}
		}
	}
	if p.StereoPair {
		left, right := p.Modes[StreamInfrared], p.Modes[StreamInfrared2]
		if len(left) != len(right) {
			return fmt.Errorf("model %s: infrared has %d modes, infrared2 has %d", p.Model, len(left), len(right))
		}
		for i := range left {
			if left[i] != right[i] {
				return fmt.Errorf("model %s: infrared mode %d (%s) differs from infrared2 (%s)", p.Model, i, left[i], right[i])
			}
		}
	}
	return nil
}

func containsMode(modes []StreamMode, mode StreamMode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

// ModelTable maps model tags to their capability rows.
type ModelTable map[Model]*ModelProfile

// Lookup returns the profile for a model.
func (t ModelTable) Lookup(m Model) (*ModelProfile, bool) {
	p, ok := t[m]
	return p, ok
}

// Models returns the known model tags in sorted order.
func (t ModelTable) Models() []Model {
	models := make([]Model, 0, len(t))
	for m := range t {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i] < models[j] })
	return models
}
