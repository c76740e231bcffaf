// Package codec implements the two column codecs that make up a chunk's
// wire format: delta-of-delta varint encoding for the time column and
// Gorilla XOR encoding for the value column.
package codec

import (
	"encoding/binary"

	"github.com/rnxpyke/kelpie/internal/pool"
)

// timeEncoder implements delta-of-delta encoding for an ascending sequence
// of int64 times, using zigzag + varint to keep the common case (regular
// intervals) to one byte per point after the first two.
//
// Encoding:
//   - 1st time: full varint
//   - 2nd time: zigzag+varint of (t1 - t0)
//   - nth time (n>2): zigzag+varint of (delta_n - delta_{n-1})
type timeEncoder struct {
	prevTime  int64
	prevDelta int64
	buf       *pool.ByteBuffer
	seqCount  int
}

func newTimeEncoder() *timeEncoder {
	return &timeEncoder{buf: pool.GetBlobBuffer()}
}

// WriteSlice encodes times in order. times must already be ascending; the
// codec does not sort.
func (e *timeEncoder) WriteSlice(times []int64) {
	for _, t := range times {
		e.write(t)
	}
}

func (e *timeEncoder) write(t int64) {
	e.seqCount++

	if e.seqCount == 1 {
		e.appendUnsigned(uint64(t)) //nolint:gosec
		e.prevTime = t

		return
	}

	delta := t - e.prevTime

	var toEncode int64
	if e.seqCount == 2 {
		toEncode = delta
	} else {
		toEncode = delta - e.prevDelta
	}

	zigzag := (toEncode << 1) ^ (toEncode >> 63)
	e.appendUnsigned(uint64(zigzag)) //nolint:gosec

	e.prevDelta = delta
	e.prevTime = t
}

func (e *timeEncoder) appendUnsigned(value uint64) {
	if value <= 0x7F {
		idx := len(e.buf.B)
		e.buf.ExtendOrGrow(1)
		e.buf.B[idx] = byte(value)

		return
	}

	e.buf.Grow(binary.MaxVarintLen64)
	e.buf.B = binary.AppendUvarint(e.buf.B, value)
}

func (e *timeEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *timeEncoder) Finish() {
	pool.PutBlobBuffer(e.buf)
	e.buf = nil
}

// decodeTimes decodes every time it can from data, stopping as soon as the
// varint stream is exhausted or malformed. It never needs an expected
// count: a well-formed frame is exactly as long as its encoded points, so
// running the loop to data exhaustion recovers exactly the original
// sequence length.
func decodeTimes(data []byte) []int64 {
	if len(data) == 0 {
		return nil
	}

	first, offset, ok := decodeVarint64(data, 0)
	if !ok {
		return nil
	}

	times := make([]int64, 0, len(data)/2+1)
	cur := int64(first) //nolint:gosec
	times = append(times, cur)

	zigzag, offset, ok := decodeVarint64(data, offset)
	if !ok {
		return times
	}
	delta := decodeZigZag64(zigzag)
	cur += delta
	times = append(times, cur)

	prevDelta := delta
	for {
		deltaZigzag, nextOffset, ok := decodeVarint64(data, offset)
		if !ok {
			return times
		}
		offset = nextOffset

		deltaOfDelta := decodeZigZag64(deltaZigzag)
		prevDelta += deltaOfDelta
		cur += prevDelta
		times = append(times, cur)
	}
}

func decodeVarint64(data []byte, offset int) (uint64, int, bool) {
	if offset >= len(data) {
		return 0, offset, false
	}

	cur := offset
	b0 := data[cur]
	cur++
	if b0 < 0x80 {
		return uint64(b0), cur, true
	}

	if cur >= len(data) {
		return 0, offset, false
	}

	b1 := data[cur]
	cur++
	value := uint64(b0&0x7f) | uint64(b1&0x7f)<<7
	if b1 < 0x80 {
		return value, cur, true
	}

	shift := uint(14)
	for i := 2; i < binary.MaxVarintLen64; i++ {
		if cur >= len(data) {
			return 0, offset, false
		}

		b := data[cur]
		cur++
		value |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return value, cur, true
		}
		shift += 7
	}

	return 0, offset, false
}

func decodeZigZag64(value uint64) int64 {
	return int64((value >> 1) ^ -(value & 1)) //nolint:gosec
}
