package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/model"
)

// DateLayout is the wire format of date parameters.
const DateLayout = "2006-01-02"

// Params holds parameter values after they were parsed against a report's
// ParameterSpec list. Absent optional parameters without a default have no
// entry; accessors return the zero value for them.
type Params struct {
	dates   map[string]time.Time
	strings map[string]string
	bools   map[string]bool
}

// Has reports whether name was supplied or defaulted.
func (p Params) Has(name string) bool {
	if _, ok := p.dates[name]; ok {
		return true
	}
	if _, ok := p.strings[name]; ok {
		return true
	}
	_, ok := p.bools[name]
	return ok
}

// Date returns a date parameter at midnight in the engine's location.
func (p Params) Date(name string) time.Time { return p.dates[name] }

// String returns a select parameter.
func (p Params) String(name string) string { return p.strings[name] }

// Bool returns a checkbox parameter.
func (p Params) Bool(name string) bool { return p.bools[name] }

// ParseParams validates raw string parameters against specs. Unknown names,
// missing required values and malformed values are all reported in one
// apperr.ErrValidation error.
func ParseParams(specs []model.ParameterSpec, raw map[string]string, now time.Time, loc *time.Location) (Params, error) {
	p := Params{
		dates:   map[string]time.Time{},
		strings: map[string]string{},
		bools:   map[string]bool{},
	}
	if loc == nil {
		loc = time.Local
	}

	var problems []string
	known := make(map[string]bool, len(specs))
	for _, s := range specs {
		known[s.Name] = true
	}
	var unknown []string
	for name := range raw {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		problems = append(problems, fmt.Sprintf("unknown parameter %q", name))
	}

	for _, s := range specs {
		v := strings.TrimSpace(raw[s.Name])
		if v == "" {
			v = s.Default
		}
		if v == "" {
			if s.Required {
				problems = append(problems, fmt.Sprintf("%s is required", s.Name))
			}
			continue
		}

		switch s.Type {
		case model.ParamDate:
			d, err := parseDate(v, now, loc)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", s.Name, err))
				continue
			}
			p.dates[s.Name] = d
		case model.ParamCheckbox:
			b, err := parseBool(v)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", s.Name, err))
				continue
			}
			p.bools[s.Name] = b
		case model.ParamSelect:
			if len(s.Options) > 0 && !contains(s.Options, v) {
				problems = append(problems, fmt.Sprintf("%s must be one of %s", s.Name, strings.Join(s.Options, ", ")))
				continue
			}
			p.strings[s.Name] = v
		default:
			problems = append(problems, fmt.Sprintf("%s has unsupported type %q", s.Name, s.Type))
		}
	}

	if len(problems) > 0 {
		return Params{}, fmt.Errorf("%w: %s", apperr.ErrValidation, strings.Join(problems, "; "))
	}
	return p, nil
}

func parseDate(v string, now time.Time, loc *time.Location) (time.Time, error) {
	if strings.EqualFold(v, "today") {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc), nil
	}
	d, err := time.ParseInLocation(DateLayout, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", v)
	}
	return d, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("expected a boolean, got %q", v)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
