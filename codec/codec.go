// Package codec encodes contact snapshots.
//
// Snapshots record the codec and compressor names in their header, so a
// snapshot written with one configuration is still readable after the
// defaults change.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for newly written snapshots.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json", "":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustByName is ByName for configuration that was already validated.
func MustByName(name string) Codec {
	c, ok := ByName(name)
	if !ok {
		panic(fmt.Errorf("codec: unknown codec %q", name))
	}
	return c
}
