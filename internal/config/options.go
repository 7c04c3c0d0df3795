package config

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/modelopt/internal/framework"
)

// Options is the configuration bundle of a single conversion run.
//
// Raw fields carry the user-facing option name in their yaml tag. They are
// filled by the CLI (and optionally an options file) and then normalized in
// place by the validator, which writes parsed forms into Resolved. Stages
// after validation read Resolved and never re-parse the raw strings.
type Options struct {
	// Common options.
	Framework                  string  `yaml:"framework"`
	InputModel                 string  `yaml:"input_model"`
	ModelName                  string  `yaml:"model_name"`
	OutputDir                  string  `yaml:"output_dir"`
	InputShape                 string  `yaml:"input_shape"`
	Scale                      float64 `yaml:"scale"`
	ScaleValues                string  `yaml:"scale_values"`
	MeanValues                 string  `yaml:"mean_values"`
	Input                      string  `yaml:"input"`
	Output                     string  `yaml:"output"`
	Batch                      int     `yaml:"batch"`
	DataType                   string  `yaml:"data_type"`
	ReverseInputChannels       bool    `yaml:"reverse_input_channels"`
	LogLevel                   string  `yaml:"log_level"`
	LogFormat                  string  `yaml:"log_format"`
	Silent                     bool    `yaml:"silent"`
	Extensions                 string  `yaml:"extensions"`
	FreezePlaceholderWithValue string  `yaml:"freeze_placeholder_with_value"`
	TransformationsConfig      string  `yaml:"transformations_config"`
	DisableFusing              bool    `yaml:"disable_fusing"`
	DisableGFusing             bool    `yaml:"disable_gfusing"`
	MoveToPreprocess           bool    `yaml:"move_to_preprocess"`
	KeepShapeOps               bool    `yaml:"keep_shape_ops"`
	DisableWeightsCompression  bool    `yaml:"disable_weights_compression"`
	GenerateDeprecatedIRV7     bool    `yaml:"generate_deprecated_IR_V7"`
	TelemetryURL               string  `yaml:"telemetry_url"`
	NoColor                    bool    `yaml:"no_color"`

	// Caffe options.
	InputProto                   string `yaml:"input_proto"`
	CaffeParserPath              string `yaml:"caffe_parser_path"`
	MeanFile                     string `yaml:"mean_file"`
	MeanFileOffsets              string `yaml:"mean_file_offsets"`
	K                            string `yaml:"k"`
	DisableResnetOptimization    bool   `yaml:"disable_resnet_optimization"`
	EnableFlatteningNestedParams bool   `yaml:"enable_flattening_nested_params"`

	// TensorFlow options.
	InputModelIsText                           bool   `yaml:"input_model_is_text"`
	InputCheckpoint                            string `yaml:"input_checkpoint"`
	InputMetaGraph                             string `yaml:"input_meta_graph"`
	SavedModelDir                              string `yaml:"saved_model_dir"`
	SavedModelTags                             string `yaml:"saved_model_tags"`
	TensorflowCustomOperationsConfigUpdate     string `yaml:"tensorflow_custom_operations_config_update"`
	TensorflowUseCustomOperationsConfig        string `yaml:"tensorflow_use_custom_operations_config"`
	TensorflowObjectDetectionAPIPipelineConfig string `yaml:"tensorflow_object_detection_api_pipeline_config"`
	TensorboardLogdir                          string `yaml:"tensorboard_logdir"`
	TensorflowCustomLayerLibraries             string `yaml:"tensorflow_custom_layer_libraries"`
	DisableNHWCToNCHW                          bool   `yaml:"disable_nhwc_to_nchw"`

	// MXNet options.
	InputSymbol         string `yaml:"input_symbol"`
	NdPrefixName        string `yaml:"nd_prefix_name"`
	PretrainedModelName string `yaml:"pretrained_model_name"`
	SaveParamsFromNd    bool   `yaml:"save_params_from_nd"`
	LegacyMXNetModel    bool   `yaml:"legacy_mxnet_model"`
	EnableSSDGluoncv    bool   `yaml:"enable_ssd_gluoncv"`

	// Kaldi options.
	Counts              string `yaml:"counts"`
	RemoveOutputSoftmax bool   `yaml:"remove_output_softmax"`
	RemoveMemory        bool   `yaml:"remove_memory"`

	// GenerateExperimentalIRV10 is derived from GenerateDeprecatedIRV7 and
	// forced off for Kaldi.
	GenerateExperimentalIRV10 bool `yaml:"-"`

	Resolved Resolved `yaml:"-"`
}

// Resolved holds the normalized forms produced by validation.
type Resolved struct {
	Framework            framework.Framework
	DataType             string
	MeanFileOffsets      []int
	SavedModelTags       []string
	Outputs              []string
	PlaceholderShapes    map[string][]int64
	UnnamedShape         []int64
	PlaceholderDataTypes map[string]string
	MeanScale            MeanScale
	ExtensionDirs        []string
	InputSpecs           []InputSpec
	FreezeValues         map[string]string
	InputNames           []string
}

// InputSpec is one parsed entry of the --input option, written as
// `name{type}[d0 d1 ...]->value` where every part but the name is optional.
type InputSpec struct {
	Name     string
	DataType string
	// Shape is nil when no shape was given. An empty, non-nil shape is a scalar.
	Shape []int64
	// Value is the constant the input is frozen to, when Frozen is set.
	Value  string
	Frozen bool
}

// MeanScaleValues are the per-channel mean and scale of one input. Either
// slice may be nil.
type MeanScaleValues struct {
	Mean  []float64
	Scale []float64
}

// MeanScale is the merged mean/scale specification. ByInput is used when
// inputs are named, Unnamed when values were given positionally with no
// input names to attach them to.
type MeanScale struct {
	ByInput map[string]MeanScaleValues
	Unnamed []MeanScaleValues
}

// Empty reports whether no mean or scale values were given.
func (m MeanScale) Empty() bool {
	return len(m.ByInput) == 0 && len(m.Unnamed) == 0
}

// DefaultCustomLayersMapping is the default value of the Caffe `k` option.
func DefaultCustomLayersMapping() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("extensions", "front", "caffe", "CustomLayersMapping.xml")
	}
	return filepath.Join(filepath.Dir(exe), "extensions", "front", "caffe", "CustomLayersMapping.xml")
}

// Defaults returns the option values in effect when nothing is specified.
func Defaults() Options {
	return Options{
		OutputDir:                 ".",
		DataType:                  "float",
		LogLevel:                  "ERROR",
		LogFormat:                 "text",
		K:                         DefaultCustomLayersMapping(),
		GenerateExperimentalIRV10: true,
	}
}

// Sources extracts the fields the framework detector inspects.
func (o *Options) Sources() framework.Sources {
	return framework.Sources{
		Framework:           o.Framework,
		InputModel:          o.InputModel,
		InputProto:          o.InputProto,
		InputSymbol:         o.InputSymbol,
		PretrainedModelName: o.PretrainedModelName,
		SavedModelDir:       o.SavedModelDir,
		InputMetaGraph:      o.InputMetaGraph,
	}
}

var (
	fieldIndexOnce sync.Once
	fieldIndex     map[string]int
	fieldOrder     []string
)

func indexFields() {
	t := reflect.TypeOf(Options{})
	fieldIndex = make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		fieldIndex[name] = i
		fieldOrder = append(fieldOrder, name)
	}
}

// Names lists every raw option name in declaration order.
func Names() []string {
	fieldIndexOnce.Do(indexFields)
	return append([]string(nil), fieldOrder...)
}

// Lookup returns the raw value of an option by its command-line name.
func (o *Options) Lookup(name string) (any, bool) {
	fieldIndexOnce.Do(indexFields)
	i, ok := fieldIndex[name]
	if !ok {
		return nil, false
	}
	return reflect.ValueOf(o).Elem().Field(i).Interface(), true
}

// CopyFrom overwrites the named raw options with the values held by src.
// Unknown names are ignored.
func (o *Options) CopyFrom(src *Options, names ...string) {
	fieldIndexOnce.Do(indexFields)
	dst := reflect.ValueOf(o).Elem()
	from := reflect.ValueOf(src).Elem()
	for _, name := range names {
		if i, ok := fieldIndex[name]; ok {
			dst.Field(i).Set(from.Field(i))
		}
	}
}

// IsSet reports whether an option holds a non-zero value.
func (o *Options) IsSet(name string) bool {
	v, ok := o.Lookup(name)
	if !ok {
		return false
	}
	return !reflect.ValueOf(v).IsZero()
}

// SetNames returns the sorted names of all options holding a non-zero value.
func (o *Options) SetNames() []string {
	var out []string
	for _, name := range Names() {
		if o.IsSet(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
