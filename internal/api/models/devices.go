package models

import "github.com/smazurov/depthnode/internal/camera"

// Device models
type DeviceData struct {
	Index          int      `json:"index" example:"0" doc:"Position in the last enumeration"`
	Serial         string   `json:"serial" example:"2391004154" doc:"Device serial number"`
	Name           string   `json:"name" example:"Intel RealSense R200" doc:"Marketing name"`
	Model          string   `json:"model" example:"r200" doc:"Model identifier"`
	State          string   `json:"state" example:"configured" enum:"idle,configured,streaming" doc:"Session state"`
	EnabledStreams []string `json:"enabled_streams" doc:"Streams in the committed configuration"`
	DepthScale     float32  `json:"depth_scale" example:"0.001" doc:"Meters per depth unit"`
}

type DeviceListData struct {
	ContextID string       `json:"context_id" doc:"Identifier of the device context"`
	Devices   []DeviceData `json:"devices" doc:"Enumerated devices"`
	Count     int          `json:"count" example:"2" doc:"Number of devices"`
}

type DeviceListResponse struct {
	Body DeviceListData
}

type DeviceResponse struct {
	Body DeviceData
}

// Stream models
type StreamModesData struct {
	Serial  string            `json:"serial" example:"2391004154"`
	Stream  string            `json:"stream" example:"depth"`
	Modes   []string          `json:"modes" doc:"Supported modes as WxH/format@fps, in catalog order"`
	Presets map[string]string `json:"presets,omitempty" doc:"Preset name to mode"`
	Enabled string            `json:"enabled,omitempty" example:"480x360/z16@60" doc:"Committed mode, if enabled"`
}

type StreamModesResponse struct {
	Body StreamModesData
}

type EnableStreamBody struct {
	Mode   string `json:"mode,omitempty" example:"480x360/z16@60" doc:"Explicit mode; mutually exclusive with preset"`
	Preset string `json:"preset,omitempty" example:"best_quality" doc:"Preset to resolve"`
}

type StreamConfigData struct {
	Serial string `json:"serial" example:"2391004154"`
	Stream string `json:"stream" example:"depth"`
	Mode   string `json:"mode" example:"480x360/z16@60"`
	State  string `json:"state" example:"configured"`
}

type StreamConfigResponse struct {
	Body StreamConfigData
}

// Option models
type DomainData struct {
	Min    float64   `json:"min" example:"100"`
	Max    float64   `json:"max" example:"1600"`
	Step   float64   `json:"step" example:"1"`
	Values []float64 `json:"values,omitempty" doc:"Discrete set; overrides min/max when present"`
}

func NewDomainData(d camera.Domain) *DomainData {
	return &DomainData{Min: d.Min, Max: d.Max, Step: d.Step, Values: d.Values}
}

type OptionData struct {
	Name      string      `json:"name" example:"r200_lr_gain"`
	Supported bool        `json:"supported"`
	Domain    *DomainData `json:"domain,omitempty"`
	Default   *float64    `json:"default,omitempty"`
	Live      bool        `json:"live" doc:"Readable and writable only while streaming"`
}

type OptionListData struct {
	Serial  string       `json:"serial" example:"2391004154"`
	Options []OptionData `json:"options"`
}

type OptionListResponse struct {
	Body OptionListData
}

type OptionValueData struct {
	Serial string  `json:"serial" example:"2391004154"`
	Option string  `json:"option" example:"r200_lr_gain"`
	Value  float64 `json:"value" example:"400"`
}

type OptionValueResponse struct {
	Body OptionValueData
}

type SetOptionBody struct {
	Value float64 `json:"value" example:"800" doc:"New value; must lie in the option domain"`
}

// Calibration models
type ExtrinsicsData struct {
	From        string     `json:"from" example:"depth"`
	To          string     `json:"to" example:"infrared2"`
	Rotation    [9]float32 `json:"rotation" doc:"Column-major 3x3 rotation"`
	Translation [3]float32 `json:"translation" doc:"Meters"`
}

type ExtrinsicsResponse struct {
	Body ExtrinsicsData
}

type IntrinsicsData struct {
	Stream string     `json:"stream" example:"depth"`
	Width  int        `json:"width" example:"480"`
	Height int        `json:"height" example:"360"`
	PPX    float32    `json:"ppx"`
	PPY    float32    `json:"ppy"`
	FX     float32    `json:"fx"`
	FY     float32    `json:"fy"`
	Model  string     `json:"model" example:"none"`
	Coeffs [5]float32 `json:"coeffs"`
}

type IntrinsicsResponse struct {
	Body IntrinsicsData
}

type DepthScaleData struct {
	Serial     string  `json:"serial" example:"2391004154"`
	DepthScale float32 `json:"depth_scale" example:"0.001" doc:"Meters per depth unit"`
}

type DepthScaleResponse struct {
	Body DepthScaleData
}
