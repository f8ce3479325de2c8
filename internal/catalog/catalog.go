// Package catalog holds the static capability table of supported camera
// models: option ranges and domains, native stream modes, presets and the
// nominal calibration of each model. The built-in table is embedded from
// models.toml and can be extended or overridden by an operator file.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/depthnode/internal/camera"
)

//go:embed models.toml
var builtin []byte

// Catalog is a parsed capability table.
type Catalog struct {
	Models       camera.ModelTable
	calibrations map[camera.Model]camera.Calibration
}

type document struct {
	Models []modelDoc `toml:"model"`
}

type modelDoc struct {
	Tag           string                       `toml:"tag"`
	Name          string                       `toml:"name"`
	SerialPattern string                       `toml:"serial_pattern"`
	StereoPair    bool                         `toml:"stereo_pair"`
	OptionRanges  []camera.OptionRange         `toml:"option_ranges"`
	Options       map[string]optionDoc         `toml:"options"`
	Modes         map[string][]string          `toml:"modes"`
	Presets       map[string]map[string]string `toml:"presets"`
	Calibration   calibrationDoc               `toml:"calibration"`
}

type optionDoc struct {
	Min     float64   `toml:"min"`
	Max     float64   `toml:"max"`
	Step    float64   `toml:"step"`
	Values  []float64 `toml:"values"`
	Default float64   `toml:"default"`
	Live    bool      `toml:"live"`
}

type calibrationDoc struct {
	Lenses     map[string]camera.Lens `toml:"lenses"`
	Extrinsics []extrinsicsDoc        `toml:"extrinsics"`
}

type extrinsicsDoc struct {
	From        string     `toml:"from"`
	To          string     `toml:"to"`
	Rotation    [9]float32 `toml:"rotation"`
	Translation [3]float32 `toml:"translation"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	c, err := Parse(builtin)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return c, nil
}

// LoadFile parses an operator-supplied catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Load returns the built-in catalog, merged with the file at path when
// path is non-empty.
func Load(path string) (*Catalog, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	extra, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return c.Merge(extra), nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		Models:       make(camera.ModelTable, len(doc.Models)),
		calibrations: make(map[camera.Model]camera.Calibration, len(doc.Models)),
	}
	for i, md := range doc.Models {
		profile, calib, err := md.build()
		if err != nil {
			return nil, fmt.Errorf("model #%d: %w", i, err)
		}
		if _, dup := c.Models[profile.Model]; dup {
			return nil, fmt.Errorf("model %s defined twice", profile.Model)
		}
		c.Models[profile.Model] = profile
		c.calibrations[profile.Model] = calib
	}
	return c, nil
}

func (md modelDoc) build() (*camera.ModelProfile, camera.Calibration, error) {
	var calib camera.Calibration
	if md.Tag == "" {
		return nil, calib, fmt.Errorf("missing tag")
	}
	model := camera.Model(md.Tag)

	pattern, err := regexp.Compile(md.SerialPattern)
	if err != nil || md.SerialPattern == "" {
		return nil, calib, fmt.Errorf("model %s: invalid serial pattern %q", model, md.SerialPattern)
	}

	profile := &camera.ModelProfile{
		Model:         model,
		Name:          md.Name,
		SerialPattern: pattern,
		OptionRanges:  md.OptionRanges,
		Options:       make(map[camera.Option]camera.OptionSpec, len(md.Options)),
		Modes:         make(map[camera.StreamKind][]camera.StreamMode, len(md.Modes)),
		Presets:       make(map[camera.StreamKind]map[camera.Preset]camera.StreamMode, len(md.Presets)),
		StereoPair:    md.StereoPair,
	}

	for name, od := range md.Options {
		o, err := camera.ParseOption(name)
		if err != nil {
			return nil, calib, fmt.Errorf("model %s: %w", model, err)
		}
		profile.Options[o] = camera.OptionSpec{
			Domain:  camera.Domain{Min: od.Min, Max: od.Max, Step: od.Step, Values: od.Values},
			Default: od.Default,
			Live:    od.Live,
		}
	}

	for name, list := range md.Modes {
		kind, err := camera.ParseStreamKind(name)
		if err != nil {
			return nil, calib, fmt.Errorf("model %s: %w", model, err)
		}
		modes := make([]camera.StreamMode, 0, len(list))
		for _, s := range list {
			m, err := camera.ParseStreamMode(s)
			if err != nil {
				return nil, calib, fmt.Errorf("model %s %s: %w", model, kind, err)
			}
			modes = append(modes, m)
		}
		profile.Modes[kind] = modes
	}

	for name, presets := range md.Presets {
		kind, err := camera.ParseStreamKind(name)
		if err != nil {
			return nil, calib, fmt.Errorf("model %s: %w", model, err)
		}
		resolved := make(map[camera.Preset]camera.StreamMode, len(presets))
		for pname, s := range presets {
			p, err := camera.ParsePreset(pname)
			if err != nil {
				return nil, calib, fmt.Errorf("model %s %s: %w", model, kind, err)
			}
			m, err := camera.ParseStreamMode(s)
			if err != nil {
				return nil, calib, fmt.Errorf("model %s %s preset %s: %w", model, kind, p, err)
			}
			resolved[p] = m
		}
		profile.Presets[kind] = resolved
	}

	if err := profile.Validate(); err != nil {
		return nil, calib, err
	}

	calib, err = md.Calibration.build(model)
	if err != nil {
		return nil, calib, err
	}
	for kind := range profile.Modes {
		if _, ok := calib.Lenses[kind]; !ok {
			return nil, calib, fmt.Errorf("model %s: stream %s has modes but no lens", model, kind)
		}
	}
	return profile, calib, nil
}

func (cd calibrationDoc) build(model camera.Model) (camera.Calibration, error) {
	calib := camera.Calibration{
		Lenses:     make(map[camera.StreamKind]camera.Lens, len(cd.Lenses)),
		Extrinsics: make(map[camera.StreamPair]camera.Extrinsics, len(cd.Extrinsics)),
	}
	for name, lens := range cd.Lenses {
		kind, err := camera.ParseStreamKind(name)
		if err != nil {
			return calib, fmt.Errorf("model %s lens: %w", model, err)
		}
		if lens.Model == "" {
			lens.Model = camera.DistortionNone
		}
		calib.Lenses[kind] = lens
	}
	for _, ed := range cd.Extrinsics {
		from, err := camera.ParseStreamKind(ed.From)
		if err != nil {
			return calib, fmt.Errorf("model %s extrinsics: %w", model, err)
		}
		to, err := camera.ParseStreamKind(ed.To)
		if err != nil {
			return calib, fmt.Errorf("model %s extrinsics: %w", model, err)
		}
		if from == to {
			return calib, fmt.Errorf("model %s extrinsics: %s to itself", model, from)
		}
		calib.Extrinsics[camera.StreamPair{From: from, To: to}] = camera.Extrinsics{
			Rotation:    ed.Rotation,
			Translation: ed.Translation,
		}
	}
	return calib, nil
}

// Merge returns a catalog containing every model of c and other. Models in
// other replace models with the same tag in c.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := &Catalog{
		Models:       make(camera.ModelTable, len(c.Models)+len(other.Models)),
		calibrations: make(map[camera.Model]camera.Calibration, len(c.calibrations)+len(other.calibrations)),
	}
	for _, src := range []*Catalog{c, other} {
		for m, p := range src.Models {
			out.Models[m] = p
			out.calibrations[m] = src.calibrations[m]
		}
	}
	return out
}

// NominalCalibration returns a copy of the design calibration of a model.
// Simulated devices start from it.
func (c *Catalog) NominalCalibration(m camera.Model) (camera.Calibration, bool) {
	calib, ok := c.calibrations[m]
	if !ok {
		return camera.Calibration{}, false
	}
	out := camera.Calibration{
		Lenses:     make(map[camera.StreamKind]camera.Lens, len(calib.Lenses)),
		Extrinsics: make(map[camera.StreamPair]camera.Extrinsics, len(calib.Extrinsics)),
	}
	for k, l := range calib.Lenses {
		out.Lenses[k] = l
	}
	for p, e := range calib.Extrinsics {
		out.Extrinsics[p] = e
	}
	return out, true
}
