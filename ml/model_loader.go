package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v2"
)

// ErrModelNotFound is returned by LoadModel when the artifact path does not exist.
var ErrModelNotFound = errors.New("model not found")

// LoadError wraps any failure to read or decode an existing artifact.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("error loading model from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadModel reads a pipeline artifact. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadModel(path string) (Model, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrModelNotFound, path)
		}
		return nil, &LoadError{Path: path, Err: err}
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		payload, err = yamlToJSON(payload)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	}

	if err := validateArtifact(payload); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	pipeline, err := DecodePipeline(payload)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return pipeline, nil
}

func validateArtifact(payload []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(artifactSchema),
		gojsonschema.NewBytesLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("invalid artifact: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("artifact does not match schema: %s", strings.Join(problems, "; "))
}

func yamlToJSON(payload []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	converted, err := convertYAML(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(converted)
}

// yaml.v2 decodes mappings as map[interface{}]interface{}, which encoding/json
// cannot marshal.
func convertYAML(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			name, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", key)
			}
			converted, err := convertYAML(item)
			if err != nil {
				return nil, err
			}
			out[name] = converted
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			converted, err := convertYAML(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return v, nil
	}
}
