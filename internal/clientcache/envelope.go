package clientcache

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Storage keys. Each key holds its own envelope and is versioned on its own.
const (
	KeyProducts   = "products"
	KeyCategories = "categories"
	KeySettings   = "settings"
)

var cacheKeys = []string{KeyProducts, KeyCategories, KeySettings}

var jsonCodec = jsoniter.Config{
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// envelope wraps a cached collection with the schema version it was written
// under.
type envelope struct {
	Version string              `json:"version"`
	Data    jsoniter.RawMessage `json:"data"`
}

func encodeEnvelope(version string, data interface{}) ([]byte, error) {
	raw, err := jsonCodec.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "encode cache data")
	}
	return jsonCodec.Marshal(envelope{Version: version, Data: raw})
}

// decodeEnvelope reports whether raw holds data written under version and,
// if so, decodes it into dest.
func decodeEnvelope(raw []byte, version string, dest interface{}) bool {
	if len(raw) == 0 {
		return false
	}
	var env envelope
	if err := jsonCodec.Unmarshal(raw, &env); err != nil {
		return false
	}
	if env.Version != version || len(env.Data) == 0 {
		return false
	}
	return jsonCodec.Unmarshal(env.Data, dest) == nil
}
