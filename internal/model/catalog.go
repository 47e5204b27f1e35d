package model

import "time"

// ParameterType enumerates the input kinds a report parameter can take.
type ParameterType string

const (
	ParamDate     ParameterType = "date"
	ParamSelect   ParameterType = "select"
	ParamCheckbox ParameterType = "checkbox"
)

// ParameterSpec describes one input of a report.
type ParameterSpec struct {
	Name     string        `json:"name"`
	Type     ParameterType `json:"type"`
	Label    string        `json:"label"`
	Required bool          `json:"required"`
	Default  string        `json:"default,omitempty"`
	Options  []string      `json:"options,omitempty"`
}

// ReportDefinition is a catalog entry for a generatable report.
type ReportDefinition struct {
	ReportID      string          `json:"report_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	IsActive      bool            `json:"is_active"`
	Parameters    []ParameterSpec `json:"parameters"`
	OutputFormats []OutputFormat  `json:"output_format"`
	EstimatedTime string          `json:"estimated_time"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Supports reports whether f is one of the definition's output formats.
func (d ReportDefinition) Supports(f OutputFormat) bool {
	for _, of := range d.OutputFormats {
		if of == f {
			return true
		}
	}
	return false
}

// Parameter returns the parameter named name.
func (d ReportDefinition) Parameter(name string) (ParameterSpec, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}
