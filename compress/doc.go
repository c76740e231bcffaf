// Package compress provides byte-level compression codecs for chunk column
// payloads.
//
// A chunk's time and value columns are first encoded by the codec package
// (delta-of-delta for times, Gorilla XOR for values), then optionally run
// through one of these compressors for an additional general-purpose pass.
// The package defines three interfaces:
//
//	type Compressor interface { Compress(data []byte) ([]byte, error) }
//	type Decompressor interface { Decompress(data []byte) ([]byte, error) }
//	type Codec interface { Compressor; Decompressor }
//
// Supported algorithms, selected via format.CompressionType:
//   - None: no compression, for already-dense encoded columns
//   - Zstd: best compression ratio, moderate speed; the catalog default
//   - S2: balanced speed and ratio
//   - LZ4: fastest decompression
//
// All implementations are safe for concurrent use.
package compress
