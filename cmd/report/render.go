package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/devicewatch/backend/internal/services"
)

type encoder func(io.Writer, *services.Report) error

func encoderFor(format string) (encoder, error) {
	switch format {
	case "json":
		return encodeJSON, nil
	case "yaml":
		return encodeYAML, nil
	default:
		return nil, fmt.Errorf("unsupported format %q, expected json or yaml", format)
	}
}

func encodeJSON(w io.Writer, report *services.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func encodeYAML(w io.Writer, report *services.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
