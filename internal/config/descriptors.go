package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/specialistvlad/modelopt/internal/framework"
)

// Descriptor maps an option to the label shown in the argument summary.
// Format, when set, renders the raw value; otherwise it is printed as is.
type Descriptor struct {
	Option string
	Label  string
	Format func(v any) string
}

// DescriptorGroup is a titled set of descriptors.
type DescriptorGroup struct {
	Key         string
	Title       string
	Descriptors []Descriptor
}

func orDefault(fallback string) func(any) string {
	return func(v any) string {
		if isZero(v) {
			return fallback
		}
		return render(v)
	}
}

func negated(v any) string {
	b, _ := v.(bool)
	return strconv.FormatBool(!b)
}

func isZero(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case int:
		return x == 0
	case float64:
		return x == 0
	case bool:
		return !x
	default:
		return v == nil
	}
}

func render(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}

// CommonDescriptors are shown for every framework. modelName is the
// resolved output name, shown when the user did not pass one.
func CommonDescriptors(modelName string) DescriptorGroup {
	inherited := orDefault("Not specified, inherited from the model")
	return DescriptorGroup{
		Key:   "common_args",
		Title: "Common parameters:",
		Descriptors: []Descriptor{
			{Option: "input_model", Label: "- Path to the Input Model"},
			{Option: "output_dir", Label: "- Path for generated IR", Format: func(v any) string {
				if s, _ := v.(string); s == "." {
					if wd, err := os.Getwd(); err == nil {
						return wd
					}
				}
				return render(v)
			}},
			{Option: "model_name", Label: "- IR output name", Format: func(v any) string {
				if isZero(v) {
					return modelName
				}
				return render(v)
			}},
			{Option: "log_level", Label: "- Log level"},
			{Option: "batch", Label: "- Batch", Format: inherited},
			{Option: "input", Label: "- Input layers", Format: inherited},
			{Option: "output", Label: "- Output layers", Format: inherited},
			{Option: "input_shape", Label: "- Input shapes", Format: inherited},
			{Option: "mean_values", Label: "- Mean values", Format: orDefault("Not specified")},
			{Option: "scale_values", Label: "- Scale values", Format: orDefault("Not specified")},
			{Option: "scale", Label: "- Scale factor", Format: orDefault("Not specified")},
			{Option: "data_type", Label: "- Precision of IR", Format: func(v any) string {
				switch s, _ := v.(string); s {
				case "float":
					return "FP32"
				case "half":
					return "FP16"
				default:
					return s
				}
			}},
			{Option: "disable_fusing", Label: "- Enable fusing", Format: negated},
			{Option: "disable_gfusing", Label: "- Enable grouped convolutions fusing", Format: negated},
			{Option: "move_to_preprocess", Label: "- Move mean values to preprocess section"},
			{Option: "reverse_input_channels", Label: "- Reverse input channels"},
		},
	}
}

func sortedGroup(key, title string, ds []Descriptor) DescriptorGroup {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Option < ds[j].Option })
	return DescriptorGroup{Key: key, Title: title, Descriptors: ds}
}

// FrameworkDescriptors returns the framework-specific group.
func FrameworkDescriptors(f framework.Framework) DescriptorGroup {
	switch f {
	case framework.Caffe:
		return sortedGroup("caffe_args", "Caffe specific parameters:", []Descriptor{
			{Option: "input_proto", Label: "- Path to the Input prototxt"},
			{Option: "caffe_parser_path", Label: "- Path to Python Caffe* parser generated from caffe.proto"},
			{Option: "mean_file", Label: "- Path to a mean file", Format: orDefault("Not specified")},
			{Option: "mean_file_offsets", Label: "- Offsets for a mean file", Format: orDefault("Not specified")},
			{Option: "k", Label: "- Path to CustomLayersMapping.xml", Format: func(v any) string {
				if s, _ := v.(string); s == DefaultCustomLayersMapping() {
					return "Default"
				}
				return render(v)
			}},
			{Option: "disable_resnet_optimization", Label: "- Enable resnet optimization", Format: negated},
		})
	case framework.TF:
		return sortedGroup("tf_args", "TensorFlow specific parameters:", []Descriptor{
			{Option: "input_model_is_text", Label: "- Input model in text protobuf format"},
			{Option: "tensorflow_custom_operations_config_update", Label: "- Update the configuration file with input/output node names"},
			{Option: "tensorflow_use_custom_operations_config", Label: "- Use the config file"},
			{Option: "tensorflow_object_detection_api_pipeline_config", Label: "- Use configuration file used to generate the model with Object Detection API"},
			{Option: "tensorflow_custom_layer_libraries", Label: "- List of shared libraries with TensorFlow custom layers implementation"},
			{Option: "tensorboard_logdir", Label: "- Path to model dump for TensorBoard"},
		})
	case framework.MXNet:
		return sortedGroup("mxnet_args", "MXNet specific parameters:", []Descriptor{
			{Option: "input_symbol", Label: "- Deploy-ready symbol file"},
			{Option: "nd_prefix_name", Label: "- Prefix name for args.nd and argx.nd files"},
			{Option: "pretrained_model_name", Label: "- Pretrained model to be merged with the .nd files"},
			{Option: "save_params_from_nd", Label: "- Enable saving built parameters file from .nd files"},
			{Option: "legacy_mxnet_model", Label: "- Enable MXNet loader for models trained with MXNet version lower than 1.0.0"},
		})
	case framework.Kaldi:
		return sortedGroup("kaldi_args", "Kaldi specific parameters:", []Descriptor{
			{Option: "counts", Label: "- A file name with full path to the counts file"},
			{Option: "remove_output_softmax", Label: "- Removes the SoftMax layer that is the output layer"},
			{Option: "remove_memory", Label: "- Removes the Memory layer and use additional inputs and outputs instead"},
		})
	case framework.ONNX:
		return DescriptorGroup{Key: "onnx_args", Title: "ONNX specific parameters:"}
	default:
		return DescriptorGroup{}
	}
}

// SummaryLine is one rendered row of the argument summary.
type SummaryLine struct {
	Label string
	Value string
}

// Summarize renders every descriptor of g against o.
func Summarize(o *Options, g DescriptorGroup) []SummaryLine {
	lines := make([]SummaryLine, 0, len(g.Descriptors))
	for _, d := range g.Descriptors {
		v, ok := o.Lookup(d.Option)
		if !ok {
			lines = append(lines, SummaryLine{Label: d.Label, Value: "NONE"})
			continue
		}
		value := render(v)
		if d.Format != nil {
			value = d.Format(v)
		}
		lines = append(lines, SummaryLine{Label: d.Label, Value: value})
	}
	return lines
}
