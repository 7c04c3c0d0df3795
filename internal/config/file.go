package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/modelopt/internal/moerr"
)

// LoadFile decodes a YAML options file on top of o. Keys are the option
// names used on the command line; unknown keys are rejected so that typos do
// not silently fall back to defaults.
func LoadFile(path string, o *Options) error {
	const op = "config.load_file"

	b, err := os.ReadFile(path)
	if err != nil {
		// Missing files are reported through the file-not-found branch.
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(o); err != nil && !errors.Is(err, io.EOF) {
		return moerr.WrapConfigf(err, op, "Cannot parse options file %s: %v", path, err)
	}
	return nil
}
