// Package metafile describes a finished build as a machine-readable manifest:
// every input with its size and imports, and the emitted output with the
// share each input contributed.
package metafile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/jsbundle/pkg/bundler"
)

// Format is a metafile encoding.
type Format string

const (
	// FormatJSON is indented JSON.
	FormatJSON Format = "json"
	// FormatYAML is YAML.
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat reports a metafile name or format that is neither JSON nor YAML.
var ErrUnknownFormat = errors.New("unknown metafile format")

// FormatFor picks the format from a file name extension.
func FormatFor(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// Metafile is the build manifest.
type Metafile struct {
	BuildID    string            `json:"buildId"           yaml:"buildId"`
	Version    string            `json:"version,omitempty" yaml:"version,omitempty"`
	EntryPoint string            `json:"entryPoint"        yaml:"entryPoint"`
	Order      string            `json:"order"             yaml:"order"`
	Inputs     map[string]Input  `json:"inputs"            yaml:"inputs"`
	Outputs    map[string]Output `json:"outputs"           yaml:"outputs"`
}

// Input is one source module.
type Input struct {
	Bytes   int            `json:"bytes"             yaml:"bytes"`
	Imports []ImportRecord `json:"imports,omitempty" yaml:"imports,omitempty"`
}

// ImportRecord is one dependency of an input.
type ImportRecord struct {
	Path     string `json:"path"     yaml:"path"`
	Kind     string `json:"kind"     yaml:"kind"`
	Original string `json:"original" yaml:"original"`
}

// Output is one emitted artifact.
type Output struct {
	Bytes           int                    `json:"bytes"                     yaml:"bytes"`
	CompressedBytes int                    `json:"compressedBytes,omitempty" yaml:"compressedBytes,omitempty"`
	EntryPoint      string                 `json:"entryPoint"                yaml:"entryPoint"`
	Inputs          map[string]OutputInput `json:"inputs"                    yaml:"inputs"`
}

// OutputInput is the share of an output produced from one input.
type OutputInput struct {
	BytesInOutput int `json:"bytesInOutput" yaml:"bytesInOutput"`
}

// New describes res written as outputName. Every call gets a fresh build id.
func New(res *bundler.Result, outputName, version string) *Metafile {
	mf := &Metafile{
		BuildID:    uuid.NewString(),
		Version:    version,
		EntryPoint: res.Entry,
		Order:      string(res.Order),
		Inputs:     make(map[string]Input, len(res.Modules)),
		Outputs:    make(map[string]Output, 1),
	}

	out := Output{
		Bytes:      len(res.Code),
		EntryPoint: res.Entry,
		Inputs:     make(map[string]OutputInput, len(res.Modules)),
	}

	for _, m := range res.Modules {
		mf.Inputs[m.Path] = Input{Bytes: m.InputBytes, Imports: importRecords(res, m.Path)}
		out.Inputs[m.Path] = OutputInput{BytesInOutput: m.OutputBytes}
	}

	mf.Outputs[outputName] = out

	return mf
}

func importRecords(res *bundler.Result, path string) []ImportRecord {
	if res.Graph == nil {
		return nil
	}

	m, ok := res.Graph.Module(path)
	if !ok {
		return nil
	}

	var records []ImportRecord

	for _, imp := range m.Imports {
		target, err := m.Resolve(imp.Specifier)
		if err != nil {
			continue
		}

		records = append(records, ImportRecord{Path: target, Kind: string(imp.Kind), Original: imp.Specifier})
	}

	return records
}

// SetCompressed records the size of the compressed copy of outputName.
func (mf *Metafile) SetCompressed(outputName string, n int) {
	out, ok := mf.Outputs[outputName]
	if !ok {
		return
	}

	out.CompressedBytes = n
	mf.Outputs[outputName] = out
}

// Encode writes mf to w in the given format.
func (mf *Metafile) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metafile: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metafile: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode metafile: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Marshal returns mf encoded in the given format.
func (mf *Metafile) Marshal(format Format) ([]byte, error) {
	var buf bytes.Buffer

	if err := mf.Encode(&buf, format); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a metafile.
func Decode(data []byte, format Format) (*Metafile, error) {
	var mf Metafile

	var err error

	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &mf)
	case FormatYAML:
		err = yaml.Unmarshal(data, &mf)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("decode metafile: %w", err)
	}

	return &mf, nil
}
