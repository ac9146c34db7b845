package dataset

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/procap/internal/model"
)

type scenarioFile struct {
	Scenarios []scenarioEntry `yaml:"scenarios"`
}

type scenarioEntry struct {
	Name    string   `yaml:"name"`
	Mean    *float64 `yaml:"mean"`
	Std     *float64 `yaml:"std"`
	LSL     *float64 `yaml:"lsl"`
	USL     *float64 `yaml:"usl"`
	Target  *float64 `yaml:"target"`
	Visible *bool    `yaml:"visible"`
}

// LoadScenarios reads a YAML scenario file.
func LoadScenarios(path string) ([]model.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenarios(data)
}

// ParseScenarios decodes scenarios from YAML of the form:
//
//	scenarios:
//	  - name: line-a
//	    mean: 10
//	    std: 0.5
//	    lsl: 8
//	    usl: 12
//	    visible: true
//
// Visible defaults to true. Every scenario needs a name, mean, std, lsl and usl,
// all finite, with std > 0 and usl > lsl.
func ParseScenarios(data []byte) ([]model.Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var file scenarioFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios found")
	}
	out := make([]model.Scenario, 0, len(file.Scenarios))
	seen := make(map[string]struct{}, len(file.Scenarios))
	for i, e := range file.Scenarios {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("scenario %d: name is required", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("scenario %q: duplicate name", name)
		}
		seen[name] = struct{}{}
		missing := missingFields(e)
		if len(missing) > 0 {
			return nil, fmt.Errorf("scenario %q: missing %s", name, strings.Join(missing, ", "))
		}
		if err := checkProcess(e); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", name, err)
		}
		visible := true
		if e.Visible != nil {
			visible = *e.Visible
		}
		out = append(out, model.Scenario{
			Name:    name,
			Mean:    *e.Mean,
			Std:     *e.Std,
			LSL:     *e.LSL,
			USL:     *e.USL,
			Target:  e.Target,
			Visible: visible,
		})
	}
	return out, nil
}

func checkProcess(e scenarioEntry) error {
	fields := []struct {
		name  string
		value *float64
	}{{"mean", e.Mean}, {"std", e.Std}, {"lsl", e.LSL}, {"usl", e.USL}, {"target", e.Target}}
	for _, f := range fields {
		if f.value != nil && (math.IsNaN(*f.value) || math.IsInf(*f.value, 0)) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
	}
	if *e.Std <= 0 {
		return fmt.Errorf("std must be > 0")
	}
	if *e.USL <= *e.LSL {
		return fmt.Errorf("usl must be greater than lsl")
	}
	return nil
}

func missingFields(e scenarioEntry) []string {
	var missing []string
	if e.Mean == nil {
		missing = append(missing, "mean")
	}
	if e.Std == nil {
		missing = append(missing, "std")
	}
	if e.LSL == nil {
		missing = append(missing, "lsl")
	}
	if e.USL == nil {
		missing = append(missing, "usl")
	}
	return missing
}
