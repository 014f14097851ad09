package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/devicewatch/backend/internal/errorgroup"
)

// LoadEngineOptions reads clustering thresholds from a YAML file. An empty path
// returns the defaults, and keys missing from the file keep their default value.
//
//	lines_check: 5
//	min_match_length: 3
//	match_min_coverage: 60
//	match_min_lines: 2
func LoadEngineOptions(path string) (errorgroup.Options, error) {
	opts := errorgroup.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return errorgroup.Options{}, fmt.Errorf("failed to load engine config %s: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", &opts, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return errorgroup.Options{}, fmt.Errorf("failed to parse engine config %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return errorgroup.Options{}, fmt.Errorf("invalid engine config %s: %w", path, err)
	}
	return opts, nil
}
