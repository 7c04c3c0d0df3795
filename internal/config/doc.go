// Package config defines the configuration bundle of a conversion run.
//
// Options is populated by the CLI, optionally pre-filled from a YAML options
// file, and normalized in place by the validate package. The descriptor
// groups describe how options are presented in the argument summary.
package config
