package cli

import (
	"github.com/spf13/cobra"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/framework"
)

// bindFlags registers one persistent flag per option on cmd, writing into o.
func bindFlags(cmd *cobra.Command, o *config.Options) {
	f := cmd.PersistentFlags()

	// Common.
	f.StringVar(&o.Framework, "framework", o.Framework, "Name of the framework used to train the input model: "+framework.ValidNames())
	f.StringVarP(&o.InputModel, "input_model", "m", o.InputModel, "Tensorflow*: a file with a pre-trained model (binary or text .pb file after freezing). Caffe*: a model proto file with model weights")
	f.StringVarP(&o.ModelName, "model_name", "n", o.ModelName, "Model_name parameter passed to the final create_ir transform. This parameter is used to name a network in a generated IR and output .xml/.bin files.")
	f.StringVarP(&o.OutputDir, "output_dir", "o", o.OutputDir, "Directory that stores the generated IR. By default, it is the directory from where the Model Optimizer is launched.")
	f.StringVar(&o.InputShape, "input_shape", o.InputShape, "Input shape(s) that should be fed to an input node(s) of the model, e.g. [1,3,227,227] or (1,227,227,3)")
	f.Float64Var(&o.Scale, "scale", o.Scale, "All input values coming from original network inputs will be divided by this value.")
	f.StringVar(&o.ScaleValues, "scale_values", o.ScaleValues, "Scale values to be used for the input image per channel, e.g. data[255,255,255]")
	f.StringVar(&o.MeanValues, "mean_values", o.MeanValues, "Mean values to be used for the input image per channel, e.g. data[104,117,123]")
	f.StringVar(&o.Input, "input", o.Input, "Quoted list of comma-separated input nodes names with shapes, data types, and values for freezing, e.g. in{i32}[1 3]->[5 6]")
	f.StringVar(&o.Output, "output", o.Output, "The name of the output operation of the model.")
	f.IntVarP(&o.Batch, "batch", "b", o.Batch, "Input batch size")
	f.StringVar(&o.DataType, "data_type", o.DataType, "Data type for all intermediate tensors and weights: FP16, FP32, half, float")
	f.BoolVar(&o.ReverseInputChannels, "reverse_input_channels", o.ReverseInputChannels, "Switch the input channels order from RGB to BGR (or vice versa).")
	f.StringVar(&o.LogLevel, "log_level", o.LogLevel, "Logger level: CRITICAL, ERROR, WARN, WARNING, INFO, DEBUG, NOTSET")
	f.StringVar(&o.LogFormat, "log_format", o.LogFormat, "Log output format: text or json")
	f.BoolVar(&o.Silent, "silent", o.Silent, "Prevent any output messages except those that correspond to log level equals ERROR.")
	f.StringVar(&o.Extensions, "extensions", o.Extensions, "Directory or a comma separated list of directories with extension manifests.")
	f.StringVar(&o.FreezePlaceholderWithValue, "freeze_placeholder_with_value", o.FreezePlaceholderWithValue, "Replaces input layer with constant node with provided value, e.g.: node_name->True")
	f.StringVar(&o.TransformationsConfig, "transformations_config", o.TransformationsConfig, "Use the configuration file with transformations description.")
	f.BoolVar(&o.DisableFusing, "disable_fusing", o.DisableFusing, "Turn off fusing of linear operations to Convolution")
	f.BoolVar(&o.DisableGFusing, "disable_gfusing", o.DisableGFusing, "Turn off fusing of grouped convolutions")
	f.BoolVar(&o.MoveToPreprocess, "move_to_preprocess", o.MoveToPreprocess, "Move mean values to IR preprocess section")
	f.BoolVar(&o.KeepShapeOps, "keep_shape_ops", o.KeepShapeOps, "The option is ignored. Expected behavior is enabled by default.")
	f.BoolVar(&o.DisableWeightsCompression, "disable_weights_compression", o.DisableWeightsCompression, "Disable compression and store weights with original precision.")
	f.BoolVar(&o.GenerateDeprecatedIRV7, "generate_deprecated_IR_V7", o.GenerateDeprecatedIRV7, "Force to generate deprecated IR V7 with layers from old IR specification.")
	f.StringVar(&o.TelemetryURL, "telemetry_url", o.TelemetryURL, "socket.io endpoint receiving a conversion report. Disabled when empty.")
	f.BoolVar(&o.NoColor, "no_color", o.NoColor, "Disable styled console output.")

	// Caffe.
	f.StringVarP(&o.InputProto, "input_proto", "d", o.InputProto, "Deploy-ready prototxt file that contains a topology structure and layer attributes")
	f.StringVar(&o.CaffeParserPath, "caffe_parser_path", o.CaffeParserPath, "Path to Python Caffe* parser generated from caffe.proto")
	f.StringVar(&o.MeanFile, "mean_file", o.MeanFile, "Mean image to be used for the input. Should be a binaryproto file")
	f.StringVar(&o.MeanFileOffsets, "mean_file_offsets", o.MeanFileOffsets, "Mean image offsets to be used for the input binaryproto file, e.g. (0,0)")
	f.StringVarP(&o.K, "k", "k", o.K, "Path to CustomLayersMapping.xml to register custom layers")
	f.BoolVar(&o.DisableResnetOptimization, "disable_resnet_optimization", o.DisableResnetOptimization, "Turn off resnet optimization")
	f.BoolVar(&o.EnableFlatteningNestedParams, "enable_flattening_nested_params", o.EnableFlatteningNestedParams, "Enable flattening optional params to be placed in one list.")

	// TensorFlow.
	f.BoolVar(&o.InputModelIsText, "input_model_is_text", o.InputModelIsText, "TensorFlow*: treat the input model file as a text protobuf format.")
	f.StringVar(&o.InputCheckpoint, "input_checkpoint", o.InputCheckpoint, "TensorFlow*: variables file to load.")
	f.StringVar(&o.InputMetaGraph, "input_meta_graph", o.InputMetaGraph, "Tensorflow*: a file with a meta-graph of the model before freezing")
	f.StringVar(&o.SavedModelDir, "saved_model_dir", o.SavedModelDir, "TensorFlow*: directory with a model in SavedModel format")
	f.StringVar(&o.SavedModelTags, "saved_model_tags", o.SavedModelTags, "Group of tag(s) of the MetaGraphDef to load, in string format, separated by ','.")
	f.StringVar(&o.TensorflowCustomOperationsConfigUpdate, "tensorflow_custom_operations_config_update", o.TensorflowCustomOperationsConfigUpdate, "TensorFlow*: update the configuration file with node name patterns with input/output nodes information.")
	f.StringVar(&o.TensorflowUseCustomOperationsConfig, "tensorflow_use_custom_operations_config", o.TensorflowUseCustomOperationsConfig, "Use the configuration file with custom operation description.")
	f.StringVar(&o.TensorflowObjectDetectionAPIPipelineConfig, "tensorflow_object_detection_api_pipeline_config", o.TensorflowObjectDetectionAPIPipelineConfig, "TensorFlow*: path to the pipeline configuration file used to generate model created with help of Object Detection API.")
	f.StringVar(&o.TensorboardLogdir, "tensorboard_logdir", o.TensorboardLogdir, "TensorFlow*: dump the input graph to a given directory that should be used with TensorBoard.")
	f.StringVar(&o.TensorflowCustomLayerLibraries, "tensorflow_custom_layer_libraries", o.TensorflowCustomLayerLibraries, "TensorFlow*: comma separated list of shared libraries with TensorFlow* custom operations implementation.")
	f.BoolVar(&o.DisableNHWCToNCHW, "disable_nhwc_to_nchw", o.DisableNHWCToNCHW, "Disables default translation from NHWC to NCHW")

	// MXNet.
	f.StringVar(&o.InputSymbol, "input_symbol", o.InputSymbol, "Symbol file (for example, model-symbol.json) that contains a topology structure and layer attributes")
	f.StringVar(&o.NdPrefixName, "nd_prefix_name", o.NdPrefixName, "Prefix name for args.nd and argx.nd files.")
	f.StringVar(&o.PretrainedModelName, "pretrained_model_name", o.PretrainedModelName, "Name of a pretrained MXNet model without extension and epoch number.")
	f.BoolVar(&o.SaveParamsFromNd, "save_params_from_nd", o.SaveParamsFromNd, "Enable saving built parameters file from .nd files")
	f.BoolVar(&o.LegacyMXNetModel, "legacy_mxnet_model", o.LegacyMXNetModel, "Enable MXNet loader to make a model compatible with the latest MXNet version.")
	f.BoolVar(&o.EnableSSDGluoncv, "enable_ssd_gluoncv", o.EnableSSDGluoncv, "Enable pattern matchers replacers for converting gluoncv ssd topologies.")

	// Kaldi.
	f.StringVar(&o.Counts, "counts", o.Counts, "Path to the counts file")
	f.BoolVar(&o.RemoveOutputSoftmax, "remove_output_softmax", o.RemoveOutputSoftmax, "Removes the SoftMax layer that is the output layer")
	f.BoolVar(&o.RemoveMemory, "remove_memory", o.RemoveMemory, "Removes the Memory layer and use additional inputs outputs instead")
}
