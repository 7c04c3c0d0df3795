// Package app contains the conversion driver. It owns the per-run logger,
// threads the options through detection, validation, extension loading,
// graph construction and emission, and maps failures onto exit statuses,
// decoupled from the CLI that builds the options.
package app
