package irwriter

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/x448/float16"

	"github.com/specialistvlad/modelopt/internal/graph"
)

// Weights collects constant blobs for the .bin file. Offsets are assigned
// as blobs are added; nothing touches the disk until Close.
//
//	w := NewWeights(path)
//	offset, size := w.Add(data)
//	// reference offset and size from the layer
//	err := w.Close()
type Weights struct {
	path    string
	offset  int64
	entries []blobEntry
}

type blobEntry struct {
	offset int64
	data   []byte
}

// NewWeights returns a writer for the weights file at path.
func NewWeights(path string) *Weights {
	return &Weights{path: path}
}

// Add appends a blob and returns its offset and size in bytes.
func (w *Weights) Add(data []byte) (offset, size int64) {
	offset = w.offset
	w.entries = append(w.entries, blobEntry{offset: offset, data: data})
	w.offset += int64(len(data))
	return offset, int64(len(data))
}

// Size is the length of the file Close will write.
func (w *Weights) Size() int64 { return w.offset }

// Close writes every blob at its offset. An empty file is still created so
// the IR always ships as a pair.
func (w *Weights) Close() error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}
	for _, e := range w.entries {
		if _, err := f.WriteAt(e.data, e.offset); err != nil {
			f.Close()
			return fmt.Errorf("write blob at offset %d: %w", e.offset, err)
		}
	}
	return f.Close()
}

var elementTypes = map[string]string{
	"FP32": "f32",
	"FP16": "f16",
	"FP64": "f64",
	"I8":   "i8",
	"I16":  "i16",
	"I32":  "i32",
	"I64":  "i64",
	"U8":   "u8",
	"U16":  "u16",
	"U1":   "u1",
	"BOOL": "boolean",
}

func isFloat(dt string) bool {
	return dt == "" || dt == "FP32" || dt == "FP16" || dt == "FP64"
}

// precisionOf returns the precision a value of type dt is stored with when
// the IR is generated for irType. Floating point data follows the IR type,
// everything else keeps its own.
func precisionOf(dt, irType string) string {
	if isFloat(dt) {
		return irType
	}
	return dt
}

// encodeTensor serializes t little-endian in the given precision.
func encodeTensor(t *graph.Tensor, precision string) ([]byte, error) {
	if int64(len(t.Data)) != t.Size() {
		return nil, fmt.Errorf("%d values do not fill shape %v", len(t.Data), t.Shape)
	}
	var out []byte
	switch precision {
	case "FP32":
		out = make([]byte, 0, 4*len(t.Data))
		for _, v := range t.Data {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v)))
		}
	case "FP16":
		out = make([]byte, 0, 2*len(t.Data))
		for _, v := range t.Data {
			out = binary.LittleEndian.AppendUint16(out, float16.Fromfloat32(float32(v)).Bits())
		}
	case "FP64":
		out = make([]byte, 0, 8*len(t.Data))
		for _, v := range t.Data {
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
		}
	case "I8":
		out = make([]byte, 0, len(t.Data))
		for _, v := range t.Data {
			out = append(out, byte(int8(v)))
		}
	case "U8", "BOOL":
		out = make([]byte, 0, len(t.Data))
		for _, v := range t.Data {
			out = append(out, uint8(v))
		}
	case "I16":
		out = make([]byte, 0, 2*len(t.Data))
		for _, v := range t.Data {
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(v)))
		}
	case "U16":
		out = make([]byte, 0, 2*len(t.Data))
		for _, v := range t.Data {
			out = binary.LittleEndian.AppendUint16(out, uint16(v))
		}
	case "I32":
		out = make([]byte, 0, 4*len(t.Data))
		for _, v := range t.Data {
			out = binary.LittleEndian.AppendUint32(out, uint32(int32(v)))
		}
	case "I64":
		out = make([]byte, 0, 8*len(t.Data))
		for _, v := range t.Data {
			out = binary.LittleEndian.AppendUint64(out, uint64(int64(v)))
		}
	case "U1":
		// Bits are packed most significant first.
		out = make([]byte, (len(t.Data)+7)/8)
		for i, v := range t.Data {
			if v != 0 {
				out[i/8] |= 0x80 >> (i % 8)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported precision %q", precision)
	}
	return out, nil
}
