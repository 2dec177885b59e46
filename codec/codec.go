// Package codec encodes the self-describing messages of a run: the worker
// handshake and encoded results.
//
// Points, centroids and assignments never go through a Codec; the wire package
// sends them as fixed binary chunks. The handshake frame does not name its
// codec, so coordinator and worker must be started with the same one.
package codec

// Codec turns values into bytes and back. Implementations must be safe for
// concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Name is the value of the worker's -codec flag.
	Name() string
}

// Default is used wherever no codec is configured.
var Default Codec = GoJSON{}

// ByName resolves the -codec flag of a worker process.
func ByName(name string) (Codec, bool) {
	switch name {
	case JSON{}.Name():
		return JSON{}, true
	case GoJSON{}.Name():
		return GoJSON{}, true
	default:
		return nil, false
	}
}
