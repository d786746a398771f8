// Package configs provides the embedded default configuration template for
// the search engine.
//
// The template is embedded at build time using Go's //go:embed directive so
// it is available in every distribution (source build or binary release)
// without shipping a separate file alongside the binary.
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go Default())
//  2. The YAML file passed to `searchengine watch`/`searchengine search`,
//     merged over the defaults.
package configs

import _ "embed"

// DefaultConfigTemplate is the starter YAML template for a new project: the
// two required directory keys plus commented-out optional sections showing
// every tunable default.
//
//go:embed default-config.example.yaml
var DefaultConfigTemplate string
