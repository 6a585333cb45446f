// Package configs provides the embedded configuration template for
// Verbex. The template is embedded at build time so callers can write
// a starter config file without shipping assets alongside the binary.
package configs

import _ "embed"

// ExampleConfigYAML is the annotated starter configuration. Every
// field carries its default value.
//
//go:embed verbex.example.yaml
var ExampleConfigYAML []byte
