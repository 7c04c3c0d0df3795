package app

import (
	"fmt"
	"io"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/theme"
	"github.com/specialistvlad/modelopt/internal/version"
)

// printSummary writes the argument summary: the common group, the group of
// the detected framework and the version line.
func printSummary(w io.Writer, th theme.Theme, o *config.Options) {
	fmt.Fprintln(w, th.Title.Render("Model Optimizer arguments:"))
	groups := []config.DescriptorGroup{
		config.CommonDescriptors(o.ModelName),
		config.FrameworkDescriptors(o.Resolved.Framework),
	}
	for _, g := range groups {
		if g.Title == "" {
			continue
		}
		fmt.Fprintln(w, th.Title.Render(g.Title))
		for _, line := range config.Summarize(o, g) {
			fmt.Fprintf(w, "\t%s: \t%s\n", line.Label, line.Value)
		}
	}
	fmt.Fprintf(w, "%s \t%s\n", th.Faint.Render("Model Optimizer version:"), version.String())
}
