// Package config provides YAML configuration loading and validation
// for the voice-trigger satellite.
package config
