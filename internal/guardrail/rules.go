package guardrail

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidRules = errors.New("invalid guardrail rules")

// LoadRules reads a YAML rule table. Fields left out of the file keep their
// built-in values, so a file may only extend the denylist.
//
//	version: "2025-06-01"
//	max_length: 200
//	denylist: ["ignore previous", "sudo"]
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (Rules, error) {
	rules := DefaultRules()
	var file struct {
		Version   string   `yaml:"version"`
		MaxLength *int     `yaml:"max_length"`
		Denylist  []string `yaml:"denylist"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if file.Version == "" {
		return Rules{}, fmt.Errorf("%w: version is required", ErrInvalidRules)
	}
	rules.Version = file.Version
	if file.MaxLength != nil {
		if *file.MaxLength <= 0 {
			return Rules{}, fmt.Errorf("%w: max_length must be positive", ErrInvalidRules)
		}
		rules.MaxLength = *file.MaxLength
	}
	if file.Denylist != nil {
		if len(file.Denylist) == 0 {
			return Rules{}, fmt.Errorf("%w: denylist must not be empty", ErrInvalidRules)
		}
		rules.Denylist = file.Denylist
	}
	return rules, nil
}
