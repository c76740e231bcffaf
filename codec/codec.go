package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rnxpyke/kelpie/compress"
	"github.com/rnxpyke/kelpie/internal/pool"
	"github.com/rnxpyke/kelpie/series"
)

// Sentinel decompress failures. Test with errors.Is; a failure always
// wraps one of these via DecompressError so the specific header/column
// that was truncated can still be inspected with errors.As.
var (
	// ErrTimeHeaderMissing means the buffer is shorter than the 8-byte
	// times_len header.
	ErrTimeHeaderMissing = errors.New("codec: time column header missing")
	// ErrTimesMissing means times_len was read but the buffer does not
	// hold that many bytes of time column payload.
	ErrTimesMissing = errors.New("codec: time column payload truncated")
	// ErrValHeaderMissing means the buffer is shorter than the 8-byte
	// vals_len header that follows the time column.
	ErrValHeaderMissing = errors.New("codec: value column header missing")
	// ErrValsMissing means vals_len was read but the buffer does not
	// hold that many bytes of value column payload.
	ErrValsMissing = errors.New("codec: value column payload truncated")
	// ErrCodec wraps a failure from the underlying byte-level compressor
	// (corrupt or incompatible compressed payload).
	ErrCodec = errors.New("codec: column decompression failed")
)

// DecompressError reports a chunk frame that failed to parse, naming
// which framing stage rejected it.
type DecompressError struct {
	Kind error // one of the Err* sentinels above
	Err  error // additional context, set when Kind is ErrCodec
}

func (e *DecompressError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}

	return e.Kind.Error()
}

func (e *DecompressError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}

	return e.Kind
}

func (e *DecompressError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func newFrameError(kind error) error {
	return &DecompressError{Kind: kind}
}

func newCodecError(err error) error {
	return &DecompressError{Kind: ErrCodec, Err: err}
}

const headerSize = 8

// Codec compresses and decompresses a RawSeries to and from the chunk
// byte frame described in the kelpie chunk catalog's on-disk format: two
// length-prefixed columns, the time column delta-of-delta + varint
// encoded and the value column Gorilla XOR encoded, each additionally
// run through a configurable general-purpose byte compressor.
type Codec struct {
	compressor compress.Codec
}

// New creates a Codec using compressor for the additional byte-level
// compression pass over each encoded column. Pass compress.NewNoOpCompressor()
// for no additional pass.
func New(compressor compress.Codec) Codec {
	return Codec{compressor: compressor}
}

// Compress encodes s into the framed chunk byte format.
func (c Codec) Compress(s *series.RawSeries) ([]byte, error) {
	times := s.SortedTimes()

	values, cleanup := pool.GetFloat64Slice(len(times))
	defer cleanup()
	for i, t := range times {
		values[i], _ = s.Get(t)
	}

	timeEnc := newTimeEncoder()
	defer timeEnc.Finish()
	timeEnc.WriteSlice(times)

	valEnc := newValueEncoder()
	defer valEnc.Finish()
	valEnc.WriteSlice(values)

	timesCol, err := c.compressor.Compress(timeEnc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("codec: compressing time column: %w", err)
	}

	valsCol, err := c.compressor.Compress(valEnc.Bytes())
	if err != nil {
		return nil, fmt.Errorf("codec: compressing value column: %w", err)
	}

	out := make([]byte, 0, headerSize+len(timesCol)+headerSize+len(valsCol))
	out = binary.LittleEndian.AppendUint64(out, uint64(len(timesCol))) //nolint:gosec
	out = append(out, timesCol...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(valsCol))) //nolint:gosec
	out = append(out, valsCol...)

	return out, nil
}

// Decompress parses the framed chunk byte format back into a RawSeries.
//
// Each length prefix is validated against the remaining buffer length
// before use. On success the time and value columns are zipped pairwise
// up to min(len(times), len(values)); a well-formed frame always produces
// equal-length columns, so any imbalance indicates truncation and is
// tolerated rather than rejected.
func (c Codec) Decompress(data []byte) (*series.RawSeries, error) {
	if len(data) < headerSize {
		return nil, newFrameError(ErrTimeHeaderMissing)
	}

	timesLen := int(binary.LittleEndian.Uint64(data[0:headerSize]))
	timesEnd := headerSize + timesLen
	if timesEnd < headerSize || len(data) < timesEnd {
		return nil, newFrameError(ErrTimesMissing)
	}
	timesCol := data[headerSize:timesEnd]

	if len(data)-timesEnd < headerSize {
		return nil, newFrameError(ErrValHeaderMissing)
	}
	valsLen := int(binary.LittleEndian.Uint64(data[timesEnd : timesEnd+headerSize]))
	valsStart := timesEnd + headerSize
	valsEnd := valsStart + valsLen
	if valsEnd < valsStart || len(data) < valsEnd {
		return nil, newFrameError(ErrValsMissing)
	}
	valsCol := data[valsStart:valsEnd]

	timesBytes, err := c.compressor.Decompress(timesCol)
	if err != nil {
		return nil, newCodecError(err)
	}
	valsBytes, err := c.compressor.Decompress(valsCol)
	if err != nil {
		return nil, newCodecError(err)
	}

	times := decodeTimes(timesBytes)
	n := len(times)
	values := decodeValues(valsBytes, n)
	if len(values) < n {
		n = len(values)
	}

	out := series.New()
	for i := 0; i < n; i++ {
		out.Insert(times[i], values[i])
	}

	return out, nil
}
