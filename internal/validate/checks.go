package validate

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/ctxlog"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/fsutil"
	"github.com/specialistvlad/modelopt/internal/moerr"
)

// UnknownModelName is used when no input path allows deriving a name.
const UnknownModelName = "<UNKNOWN_NAME>"

func checkRequiredInput(_ context.Context, o *config.Options, fw framework.Framework) error {
	const op = "validate.required_input"

	switch fw {
	case framework.TF:
		if o.InputModel == "" && o.SavedModelDir == "" && o.InputMetaGraph == "" {
			return moerr.Configf(op, "Path to input model or saved model dir is required: use --input_model, --saved_model_dir or --input_meta_graph")
		}
	case framework.MXNet:
		if o.InputModel == "" && o.InputSymbol == "" && o.PretrainedModelName == "" {
			return moerr.Configf(op, "Path to input model or input symbol or pretrained_model_name is required: use --input_model or --input_symbol or --pretrained_model_name")
		}
	case framework.Caffe:
		if o.InputModel == "" && o.InputProto == "" {
			return moerr.Configf(op, "Path to input model or input proto is required: use --input_model or --input_proto")
		}
	case framework.Kaldi, framework.ONNX:
		if o.InputModel == "" {
			return moerr.Configf(op, "Path to input model is required: use --input_model.")
		}
	default:
		return moerr.Configf(op, "Framework %s is not a valid target. Please use --framework with one from the list: %s."+moerr.FAQ(15),
			fw.String(), framework.ValidNames())
	}
	return nil
}

func checkKaldiIRVersion(ctx context.Context, o *config.Options, _ framework.Framework) error {
	if o.GenerateExperimentalIRV10 {
		ctxlog.FromContext(ctx).Debug("Kaldi models are emitted as IR v7.")
	}
	o.GenerateExperimentalIRV10 = false
	return nil
}

// DeriveModelName picks the output base name from whichever source was
// given. It only looks at base names, so it is deterministic.
func DeriveModelName(o *config.Options, fw framework.Framework) string {
	switch {
	case o.ModelName != "":
		return o.ModelName
	case o.InputModel != "":
		return fsutil.BaseNameNoExt(o.InputModel)
	case fw == framework.TF && o.SavedModelDir != "":
		return "saved_model"
	case fw == framework.TF && o.InputMetaGraph != "":
		return fsutil.BaseNameNoExt(o.InputMetaGraph)
	case fw == framework.MXNet && o.InputSymbol != "":
		return fsutil.BaseNameNoExt(o.InputSymbol)
	default:
		return UnknownModelName
	}
}

func checkModelName(ctx context.Context, o *config.Options, fw framework.Framework) error {
	o.ModelName = DeriveModelName(o, fw)
	ctxlog.FromContext(ctx).Debug("Output model name resolved.", "files", o.ModelName+"{.xml, .bin}")
	return nil
}

func checkCaffePrototxt(ctx context.Context, o *config.Options, _ framework.Framework) error {
	if o.InputProto != "" {
		return nil
	}
	proto, ok := fsutil.ReplaceExt(o.InputModel, ".caffemodel", ".prototxt")
	if !ok {
		return moerr.Configf("validate.caffe_prototxt",
			"Cannot find prototxt file: for Caffe please specify --input_proto - a protobuf file that stores topology and --input_model that stores pretrained weights."+moerr.FAQ(20))
	}
	o.InputProto = proto
	ctxlog.FromContext(ctx).Info("Deduced name for prototxt: " + proto)
	return nil
}

func checkTFCustomOperationsConfig(_ context.Context, o *config.Options, _ framework.Framework) error {
	if o.TensorflowUseCustomOperationsConfig != "" {
		o.TransformationsConfig = o.TensorflowUseCustomOperationsConfig
	}
	return nil
}

func checkCaffeMean(_ context.Context, o *config.Options, _ framework.Framework) error {
	const op = "validate.caffe_mean"

	if o.MeanFile == "" {
		return nil
	}
	if o.MeanValues != "" {
		return moerr.Configf(op, "Both --mean_file and --mean_values are specified. Specify either mean file or mean values."+moerr.FAQ(17))
	}
	if o.MeanFileOffsets == "" {
		return nil
	}
	offsets, err := ParseMeanFileOffsets(o.MeanFileOffsets)
	if err != nil {
		return err
	}
	o.Resolved.MeanFileOffsets = offsets
	return nil
}

func checkScale(ctx context.Context, o *config.Options, _ framework.Framework) error {
	if o.Scale != 0 && o.ScaleValues != "" {
		return moerr.Configf("validate.scale",
			"Both --scale and --scale_values are defined. Specify either scale factor or scale values per input channels."+moerr.FAQ(19))
	}
	if o.Scale != 0 && o.Scale < 1.0 {
		ctxlog.FromContext(ctx).Warn("The scale value is less than 1.0. This is most probably an issue because the scale value specifies floating point value which all input values will be *divided*.",
			"scale", o.Scale)
	}
	return nil
}

func checkTFModelSources(_ context.Context, o *config.Options, _ framework.Framework) error {
	if o.InputModel != "" && o.SavedModelDir != "" {
		return moerr.Configf("validate.tf_model_sources",
			"Both --input_model and --saved_model_dir are defined. Specify either input model or saved model directory.")
	}
	return nil
}

func checkTFSavedModelTags(_ context.Context, o *config.Options, _ framework.Framework) error {
	if o.SavedModelTags == "" {
		return nil
	}
	if strings.Contains(o.SavedModelTags, " ") {
		return moerr.Configf("validate.tf_saved_model_tags",
			"Incorrect saved model tag was provided. Specify --saved_model_tags with no spaces in it")
	}
	o.Resolved.SavedModelTags = strings.Split(o.SavedModelTags, ",")
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func checkOutputs(_ context.Context, o *config.Options, _ framework.Framework) error {
	o.Resolved.Outputs = splitList(o.Output)
	return nil
}

func checkInputs(_ context.Context, o *config.Options, _ framework.Framework) error {
	specs, err := ParseInputs(o.Input)
	if err != nil {
		return err
	}
	o.Resolved.InputSpecs = specs
	return nil
}

func checkPlaceholders(ctx context.Context, o *config.Options, _ framework.Framework) error {
	p, err := ResolvePlaceholders(o.Resolved.InputSpecs, o.InputShape, o.Batch)
	if err != nil {
		return err
	}
	o.Resolved.PlaceholderShapes = p.Shapes
	o.Resolved.UnnamedShape = p.Unnamed
	o.Resolved.PlaceholderDataTypes = p.DataTypes
	ctxlog.FromContext(ctx).Debug("Placeholder shapes resolved.", "shapes", p.Shapes, "unnamed", p.Unnamed)
	return nil
}

func checkMeanScale(_ context.Context, o *config.Options, _ framework.Framework) error {
	means, err := ParseTuplePairs(o.MeanValues)
	if err != nil {
		return err
	}
	scales, err := ParseTuplePairs(o.ScaleValues)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(o.Resolved.InputSpecs))
	for _, s := range o.Resolved.InputSpecs {
		names = append(names, s.Name)
	}
	ms, err := MeanScaleDictionary(means, scales, names)
	if err != nil {
		return err
	}
	o.Resolved.MeanScale = ms
	return nil
}

// ResolveOutputDir creates dir when it is missing and verifies that it is
// writable. Running it again on a valid directory changes nothing.
func ResolveOutputDir(ctx context.Context, dir string) error {
	const op = "validate.output_dir"

	created, err := fsutil.EnsureDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return moerr.WrapConfigf(err, op, "Failed to create directory %s. Permission denied!"+moerr.FAQ(22), dir)
		}
		// Not wrapped: a path blocked by a file must not read as a missing file.
		return moerr.Configf(op, "Failed to create directory %s: %v", dir, err)
	}
	if created {
		ctxlog.FromContext(ctx).Debug("Output directory created.", "dir", dir)
		return nil
	}
	if !fsutil.Writable(dir) {
		return moerr.Configf(op, "Output directory %s is not writable for current user."+moerr.FAQ(22), dir)
	}
	return nil
}

func checkOutputDir(ctx context.Context, o *config.Options, _ framework.Framework) error {
	return ResolveOutputDir(ctx, o.OutputDir)
}

func checkExtensionsList(_ context.Context, o *config.Options, _ framework.Framework) error {
	o.Resolved.ExtensionDirs = splitList(o.Extensions)
	return nil
}

func checkFreezePlaceholders(_ context.Context, o *config.Options, _ framework.Framework) error {
	values, names, err := FreezePlaceholderValues(o.Resolved.InputSpecs, o.FreezePlaceholderWithValue)
	if err != nil {
		return err
	}
	o.Resolved.FreezeValues = values
	o.Resolved.InputNames = names
	return nil
}

func checkDataType(_ context.Context, o *config.Options, _ framework.Framework) error {
	switch strings.ToLower(o.DataType) {
	case "fp32", "float":
		o.Resolved.DataType = "FP32"
	case "fp16", "half":
		o.Resolved.DataType = "FP16"
	default:
		return moerr.Configf("validate.data_type",
			"Wrong data type %q is specified for --data_type. Use one of FP16, FP32, half, float.", o.DataType)
	}
	return nil
}
