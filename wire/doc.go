// Package wire implements the framed stream protocol spoken between the
// coordinator and its worker processes.
//
// Every frame is:
//
//	[type u8][compression u8][reserved u16][length u32][raw length u32][crc32c u32][payload]
//
// All integers are little-endian. length is the payload size on the wire, raw
// length the size after decompression, and the checksum covers the raw payload.
// No frame in either direction may exceed Options.MaxFrameSize.
//
// Message layouts (raw payload):
//
//	Hello        codec-encoded Hello struct
//	Points       total u32, count u32, count * (x f64, y f64)
//	Centroids    total u32, count u32, count * (x f64, y f64)
//	Assignments  total u32, count u32, count * cluster i32
//
// Points, Centroids and Assignments are arrays split into as many chunk frames
// as MaxFrameSize requires. Each chunk repeats the array total; the receiver
// stops once it holds total records.
//
// There is no version negotiation. Both ends agree on the message order a priori:
// Hello (worker to coordinator), Points once, then Centroids/Assignments pairs.
package wire
