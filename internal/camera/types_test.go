package camera

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestParseStreamMode(t *testing.T) {
	tests := []struct {
		input   string
		want    StreamMode
		wantErr bool
	}{
		{"480x360/z16@60", StreamMode{480, 360, FormatZ16, 60}, false},
		{"640X480/RGB8@30", StreamMode{640, 480, FormatRGB8, 30}, false},
		{"492x372/y16@60", StreamMode{492, 372, FormatY16, 60}, false},
		{"480x360/z16", StreamMode{}, true},
		{"480x360@60", StreamMode{}, true},
		{"480/z16@60", StreamMode{}, true},
		{"0x360/z16@60", StreamMode{}, true},
		{"480x360/h264@60", StreamMode{}, true},
		{"480x360/z16@-1", StreamMode{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStreamMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStreamMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStreamMode(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStreamModeStringRoundTrip(t *testing.T) {
	m := StreamMode{Width: 628, Height: 468, Format: FormatZ16, Framerate: 90}
	parsed, err := ParseStreamMode(m.String())
	if err != nil {
		t.Fatalf("ParseStreamMode(%q): %v", m.String(), err)
	}
	if parsed != m {
		t.Errorf("round trip = %+v, want %+v", parsed, m)
	}
}

func TestParseStreamKindAndPreset(t *testing.T) {
	if k, err := ParseStreamKind("Infrared2"); err != nil || k != StreamInfrared2 {
		t.Errorf("ParseStreamKind(Infrared2) = %q, %v", k, err)
	}
	if _, err := ParseStreamKind("thermal"); err == nil {
		t.Error("ParseStreamKind(thermal) should fail")
	}
	if p, err := ParsePreset("best_quality"); err != nil || p != PresetBestQuality {
		t.Errorf("ParsePreset(best_quality) = %q, %v", p, err)
	}
	if _, err := ParsePreset("fastest"); err == nil {
		t.Error("ParsePreset(fastest) should fail")
	}
}

func TestOptionNames(t *testing.T) {
	seen := make(map[string]Option)
	for _, o := range AllOptions() {
		name := o.String()
		if name == "" {
			t.Fatalf("option %d has no name", int(o))
		}
		if prev, dup := seen[name]; dup {
			t.Fatalf("options %d and %d share name %q", int(prev), int(o), name)
		}
		seen[name] = o

		parsed, err := ParseOption(name)
		if err != nil || parsed != o {
			t.Errorf("ParseOption(%q) = %v, %v", name, parsed, err)
		}
	}
	if got := Option(-1).String(); got != "option(-1)" {
		t.Errorf("invalid option String() = %q", got)
	}

	var o Option
	if err := o.UnmarshalText([]byte("r200_lr_gain")); err != nil || o != OptionR200LRGain {
		t.Errorf("UnmarshalText = %v, %v", o, err)
	}
	if err := o.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("UnmarshalText(bogus) should fail")
	}
}

func TestDomainContains(t *testing.T) {
	tests := []struct {
		name   string
		domain Domain
		value  float64
		want   bool
	}{
		{"range low edge", Domain{Min: 100, Max: 1600, Step: 1}, 100, true},
		{"range high edge", Domain{Min: 100, Max: 1600, Step: 1}, 1600, true},
		{"range below", Domain{Min: 100, Max: 1600, Step: 1}, 99, false},
		{"range above", Domain{Min: 100, Max: 1600, Step: 1}, 1601, false},
		{"off step", Domain{Min: 2000, Max: 8000, Step: 10}, 2005, false},
		{"on step", Domain{Min: 2000, Max: 8000, Step: 10}, 6500, true},
		{"continuous", Domain{Min: 0, Max: 1}, 0.25, true},
		{"discrete member", Domain{Values: []float64{0, 1}}, 1, true},
		{"discrete non-member", Domain{Values: []float64{0, 1}}, 0.5, false},
		{"nan", Domain{Min: 0, Max: 1}, math.NaN(), false},
		{"inf", Domain{Min: 0, Max: math.Inf(1)}, math.Inf(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.domain.Contains(tt.value); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func approxEqual(a, b Extrinsics, tol float64) bool {
	for i := range a.Rotation {
		if math.Abs(float64(a.Rotation[i]-b.Rotation[i])) > tol {
			return false
		}
	}
	for i := range a.Translation {
		if math.Abs(float64(a.Translation[i]-b.Translation[i])) > tol {
			return false
		}
	}
	return true
}

func TestExtrinsicsInverse(t *testing.T) {
	if inv := IdentityExtrinsics().Inverse(); !inv.IsIdentity() {
		t.Errorf("identity inverse = %+v", inv)
	}

	baseline := IdentityExtrinsics()
	baseline.Translation = [3]float32{-0.07, 0, 0}
	inv := baseline.Inverse()
	if !inv.HasIdentityRotation() {
		t.Errorf("inverse rotation = %v", inv.Rotation)
	}
	if inv.Translation != [3]float32{0.07, 0, 0} {
		t.Errorf("inverse translation = %v, want [0.07 0 0]", inv.Translation)
	}

	// 90 degrees about z, column-major
	rot := Extrinsics{
		Rotation:    [9]float32{0, 1, 0, -1, 0, 0, 0, 0, 1},
		Translation: [3]float32{0.01, 0.02, 0.03},
	}
	if got := rot.Then(rot.Inverse()); !approxEqual(got, IdentityExtrinsics(), 1e-6) {
		t.Errorf("e.Then(e.Inverse()) = %+v, want identity", got)
	}
	if got := rot.Inverse().Inverse(); !approxEqual(got, rot, 1e-6) {
		t.Errorf("double inverse = %+v, want %+v", got, rot)
	}
}

func TestExtrinsicsThen(t *testing.T) {
	a := IdentityExtrinsics()
	a.Translation = [3]float32{1, 0, 0}
	b := IdentityExtrinsics()
	b.Translation = [3]float32{0, 2, 0}

	got := a.Then(b)
	if !got.HasIdentityRotation() || got.Translation != [3]float32{1, 2, 0} {
		t.Errorf("Then = %+v", got)
	}
}

func TestLensProject(t *testing.T) {
	lens := Lens{FX: 0.8, FY: 1.0, PPX: 0.5, PPY: 0.5}
	in := lens.Project(StreamMode{Width: 480, Height: 360, Format: FormatZ16, Framerate: 60})
	if in.Width != 480 || in.Height != 360 {
		t.Errorf("size = %dx%d", in.Width, in.Height)
	}
	if in.PPX != 240 || in.PPY != 180 || in.FX != 384 || in.FY != 360 {
		t.Errorf("intrinsics = %+v", in)
	}
	if in.Model != DistortionNone {
		t.Errorf("model = %q, want none", in.Model)
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("pipe broke")
	err := error(transportError("start", cause))

	if !errors.Is(err, ErrTransport) {
		t.Error("errors.Is(err, ErrTransport) = false")
	}
	if errors.Is(err, ErrNotReady) {
		t.Error("transport error matched ErrNotReady")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if KindOf(err) != KindTransport {
		t.Errorf("KindOf = %q", KindOf(err))
	}
	if KindOf(fmt.Errorf("wrapped: %w", err)) != KindTransport {
		t.Error("KindOf should see through wrapping")
	}
	if KindOf(cause) != "" {
		t.Error("KindOf(foreign) should be empty")
	}

	msg := newError(KindOutOfRange, "get_device", "index %d", 3).Error()
	if msg != "get_device: OUT_OF_RANGE: index 3" {
		t.Errorf("Error() = %q", msg)
	}
}
