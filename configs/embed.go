// Package configs provides the embedded configuration template for compass.
//
// The template is embedded at build time with go:embed so it ships with
// every distribution. `compass config init` writes it to the data directory
// as a starting point; internal/config supplies the matching hardcoded
// defaults when no file exists.
package configs

import _ "embed"

// ConfigTemplate is the annotated example configuration written by
// `compass config init`.
//
//go:embed compass.example.yaml
var ConfigTemplate string
