// Package config provides configuration structures and utilities for
// privacylens: analysis tuning, report output, storage location and the
// per-site overrides read from the YAML configuration file.
package config
