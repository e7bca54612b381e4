package vigil

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Codec defines the deserialization contract for source data.
// Implement this interface to use alternative formats like TOML, HCL, or custom binary formats.
type Codec interface {
	// Unmarshal deserializes bytes into a value.
	Unmarshal(data []byte, v any) error

	// ContentType returns the MIME type for observability and debugging.
	ContentType() string
}

// JSONCodec implements Codec using encoding/json. Input is standardized
// first, so comments and trailing commas are accepted. Object keys match
// struct fields case-insensitively.
type JSONCodec struct{}

// Unmarshal deserializes lenient JSON bytes into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	std, err := hujson.Standardize(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(std, v)
}

// ContentType returns the JSON MIME type.
func (JSONCodec) ContentType() string {
	return "application/json"
}

// Ensure JSONCodec implements Codec.
var _ Codec = JSONCodec{}

// YAMLCodec implements Codec using gopkg.in/yaml.v3.
type YAMLCodec struct{}

// Unmarshal deserializes YAML bytes into v.
func (YAMLCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// ContentType returns the YAML MIME type.
func (YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// Ensure YAMLCodec implements Codec.
var _ Codec = YAMLCodec{}

// CodecFor returns the codec registered under a format name or file
// extension: "json", "yaml" or "yml", with or without a leading dot.
func CodecFor(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json", "jsonc":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	default:
		return nil, invalidArgument("format", fmt.Sprintf("%q is not supported", name))
	}
}
