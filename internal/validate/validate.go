// Package validate normalizes and checks the configuration bundle before a
// conversion runs.
//
// Validation is a fixed, ordered list of independent checks. Several checks
// read fields normalized by earlier ones, so the order is part of the
// contract. A check that does not apply to the detected framework is
// skipped outright.
package validate

import (
	"context"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/ctxlog"
	"github.com/specialistvlad/modelopt/internal/framework"
)

// Check is one validation rule.
type Check struct {
	Name string
	// Applies restricts the check to some frameworks. Nil means all.
	Applies func(framework.Framework) bool
	Fn      func(ctx context.Context, o *config.Options, fw framework.Framework) error
}

func only(fws ...framework.Framework) func(framework.Framework) bool {
	return func(f framework.Framework) bool {
		for _, x := range fws {
			if x == f {
				return true
			}
		}
		return false
	}
}

// SummaryCheck is the last check whose results the argument summary shows.
// Checks after it run once the summary is printed.
const SummaryCheck = "caffe-prototxt"

// Checks returns the validation pipeline in execution order.
func Checks() []Check {
	return []Check{
		{Name: "required-input", Fn: checkRequiredInput},
		{Name: "kaldi-ir-version", Applies: only(framework.Kaldi), Fn: checkKaldiIRVersion},
		{Name: "model-name", Fn: checkModelName},
		{Name: SummaryCheck, Applies: only(framework.Caffe), Fn: checkCaffePrototxt},
		{Name: "tf-custom-operations-config", Applies: only(framework.TF), Fn: checkTFCustomOperationsConfig},
		{Name: "caffe-mean", Applies: only(framework.Caffe), Fn: checkCaffeMean},
		{Name: "scale", Fn: checkScale},
		{Name: "tf-model-sources", Applies: only(framework.TF), Fn: checkTFModelSources},
		{Name: "tf-saved-model-tags", Applies: only(framework.TF), Fn: checkTFSavedModelTags},
		{Name: "outputs", Fn: checkOutputs},
		{Name: "inputs", Fn: checkInputs},
		{Name: "placeholders", Fn: checkPlaceholders},
		{Name: "mean-scale", Fn: checkMeanScale},
		{Name: "output-dir", Fn: checkOutputDir},
		{Name: "extensions-list", Fn: checkExtensionsList},
		{Name: "freeze-placeholders", Fn: checkFreezePlaceholders},
		{Name: "data-type", Fn: checkDataType},
	}
}

// Run executes every applicable check against o and stops at the first
// failure.
func Run(ctx context.Context, o *config.Options, fw framework.Framework) error {
	return RunChecks(ctx, o, fw, Checks())
}

// SplitAfter cuts checks right after the check called name. When there is
// no such check, every check lands in before.
func SplitAfter(checks []Check, name string) (before, after []Check) {
	for i, c := range checks {
		if c.Name == name {
			return checks[:i+1], checks[i+1:]
		}
	}
	return checks, nil
}

// RunChecks executes the given checks in order.
func RunChecks(ctx context.Context, o *config.Options, fw framework.Framework, checks []Check) error {
	logger := ctxlog.FromContext(ctx)
	for _, c := range checks {
		if c.Applies != nil && !c.Applies(fw) {
			logger.Debug("Validation check skipped.", "check", c.Name, "framework", fw.String())
			continue
		}
		if err := c.Fn(ctxlog.With(ctx, "check", c.Name), o, fw); err != nil {
			logger.Debug("Validation check failed.", "check", c.Name, "error", err)
			return err
		}
	}
	logger.Debug("Options validated.", "framework", fw.String())
	return nil
}
