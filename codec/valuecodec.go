package codec

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/rnxpyke/kelpie/internal/pool"
)

// valueEncoder implements Facebook's Gorilla XOR compression for a
// sequence of float64 values: the first value is stored uncompressed,
// every later value is XORed against its predecessor and the leading
// zero / trailing zero / meaningful-bits block is bit-packed.
type valueEncoder struct {
	bitBuf        uint64
	prevValue     uint64
	bitCount      int
	count         int
	prevLeading   int
	prevTrailing  int
	prevBlockSize int
	firstValue    bool
	buf           *pool.ByteBuffer
}

func newValueEncoder() *valueEncoder {
	return &valueEncoder{buf: pool.GetBlobBuffer(), firstValue: true}
}

func (e *valueEncoder) WriteSlice(values []float64) {
	for _, v := range values {
		e.write(v)
	}
}

func (e *valueEncoder) write(val float64) {
	e.count++
	valBits := math.Float64bits(val)

	if e.firstValue {
		e.firstValue = false
		e.prevValue = valBits
		e.writeBits(valBits, 64)

		return
	}

	xor := valBits ^ e.prevValue
	e.prevValue = valBits

	if xor == 0 {
		e.writeBit(0)
		return
	}

	e.writeBit(1)

	leading := bits.LeadingZeros64(xor)
	trailing := bits.TrailingZeros64(xor)
	if leading > 31 {
		adjustment := leading - 31
		leading = 31
		trailing -= adjustment
		if trailing < 0 {
			trailing = 0
		}
	}

	if e.count > 2 && e.prevBlockSize > 0 && leading >= e.prevLeading && trailing >= e.prevTrailing {
		e.writeBit(0)
		e.writeBits(xor>>e.prevTrailing, e.prevBlockSize)

		return
	}

	blockSize := 64 - leading - trailing
	e.writeBit(1)
	e.write5Bits(uint64(leading)) //nolint:gosec
	e.write6Bits(uint64(blockSize - 1)) //nolint:gosec
	e.writeBits(xor>>trailing, blockSize)

	e.prevLeading = leading
	e.prevTrailing = trailing
	e.prevBlockSize = blockSize
}

func (e *valueEncoder) writeBit(bit uint64) {
	e.bitBuf = (e.bitBuf << 1) | bit
	e.bitCount++
	if e.bitCount == 64 {
		e.flushBits()
	}
}

func (e *valueEncoder) writeBits(value uint64, numBits int) {
	if numBits == 0 {
		return
	}
	if numBits < 64 {
		value &= (1 << numBits) - 1
	}

	available := 64 - e.bitCount
	if numBits <= available {
		e.bitBuf = (e.bitBuf << numBits) | value
		e.bitCount += numBits
		if e.bitCount == 64 {
			e.flushBits()
		}

		return
	}

	highBits := numBits - available
	e.bitBuf = (e.bitBuf << available) | (value >> highBits)
	e.bitCount = 64
	e.flushBits()

	e.bitBuf = value & ((1 << highBits) - 1)
	e.bitCount = highBits
}

func (e *valueEncoder) write5Bits(value uint64) {
	e.writeBits(value&0x1F, 5)
}

func (e *valueEncoder) write6Bits(value uint64) {
	e.writeBits(value&0x3F, 6)
}

func (e *valueEncoder) flushBits() {
	if e.bitCount == 0 {
		return
	}

	numBytes := (e.bitCount + 7) / 8
	e.buf.Grow(numBytes)

	alignedBits := e.bitBuf << (64 - e.bitCount)

	startLen := e.buf.Len()
	e.buf.ExtendOrGrow(numBytes)
	bs := e.buf.Slice(startLen, startLen+numBytes)

	if numBytes == 8 {
		binary.BigEndian.PutUint64(bs, alignedBits)
	} else {
		for i := range numBytes {
			shift := 56 - (i * 8)
			bs[i] = byte(alignedBits >> shift)
		}
	}

	e.bitBuf = 0
	e.bitCount = 0
}

func (e *valueEncoder) Bytes() []byte {
	if e.bitCount > 0 {
		e.flushBits()
	}

	return e.buf.Bytes()
}

func (e *valueEncoder) Finish() {
	pool.PutBlobBuffer(e.buf)
	e.buf = nil
}

// decodeValues decodes up to count float64 values from a Gorilla-encoded
// byte slice. Unlike the time column, the value column's bitstream does
// not self-terminate (an unchanged value costs a single bit, so the tail
// end is ambiguous without an expected length); callers must pass the
// count recovered from the time column.
func decodeValues(data []byte, count int) []float64 {
	if len(data) == 0 || count == 0 {
		return nil
	}

	br := newBitReader(data)

	firstBits, ok := br.readBits(64)
	if !ok {
		return nil
	}

	values := make([]float64, 0, count)
	prevValue := firstBits
	prevFloat := math.Float64frombits(prevValue)
	values = append(values, prevFloat)

	if count == 1 {
		return values
	}

	state := gorillaBlockState{}
	for len(values) < count {
		controlBit, ok := br.readBit()
		if !ok {
			return values
		}

		if controlBit == 0 {
			values = append(values, prevFloat)
			continue
		}

		trailing, blockSize, ok := state.next(br)
		if !ok {
			return values
		}

		meaningful, ok := br.readBits(blockSize)
		if !ok {
			return values
		}

		prevValue ^= meaningful << uint64(trailing) //nolint:gosec
		prevFloat = math.Float64frombits(prevValue)
		values = append(values, prevFloat)
	}

	return values
}

type gorillaBlockState struct {
	trailing  int
	blockSize int
	valid     bool
}

func (s *gorillaBlockState) next(br *bitReader) (trailing int, blockSize int, ok bool) {
	controlBit, ok := br.readBit()
	if !ok {
		return 0, 0, false
	}

	if controlBit == 0 {
		if !s.valid {
			return 0, 0, false
		}

		return s.trailing, s.blockSize, true
	}

	leading, ok := br.readBits(5)
	if !ok {
		return 0, 0, false
	}

	size, ok := br.readBits(6)
	if !ok {
		return 0, 0, false
	}
	blockSize = int(size) + 1
	if blockSize < 1 || blockSize > 64 {
		return 0, 0, false
	}

	trailing = 64 - int(leading) - blockSize
	if trailing < 0 || trailing > 64 {
		return 0, 0, false
	}

	s.trailing = trailing
	s.blockSize = blockSize
	s.valid = true

	return trailing, blockSize, true
}

// bitReader reads bits most-significant-first from a byte slice.
type bitReader struct {
	data     []byte
	bytePos  int
	bitBuf   uint64
	bitCount int
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (br *bitReader) readBit() (uint64, bool) {
	if br.bitCount == 0 {
		if !br.fillBuffer() {
			return 0, false
		}
	}

	bit := br.bitBuf >> 63
	br.bitBuf <<= 1
	br.bitCount--

	return bit, true
}

func (br *bitReader) readBits(numBits int) (uint64, bool) {
	if numBits == 0 {
		return 0, true
	}

	if numBits <= br.bitCount {
		shift := 64 - numBits
		result := br.bitBuf >> shift
		br.bitBuf <<= numBits
		br.bitCount -= numBits

		return result, true
	}

	var result uint64
	first := true
	for numBits > 0 {
		if br.bitCount == 0 {
			if !br.fillBuffer() {
				return 0, false
			}
		}

		bitsToRead := numBits
		if bitsToRead > br.bitCount {
			bitsToRead = br.bitCount
		}

		shift := 64 - bitsToRead
		shifted := br.bitBuf >> shift

		if first {
			result = shifted
			first = false
		} else {
			result = (result << bitsToRead) | shifted
		}

		br.bitBuf <<= bitsToRead
		br.bitCount -= bitsToRead
		numBits -= bitsToRead
	}

	return result, true
}

func (br *bitReader) fillBuffer() bool {
	if br.bytePos >= len(br.data) {
		return false
	}

	available := len(br.data) - br.bytePos
	toRead := 8
	if toRead > available {
		toRead = available
	}

	if toRead == 8 {
		br.bitBuf = binary.BigEndian.Uint64(br.data[br.bytePos : br.bytePos+8])
		br.bytePos += 8
		br.bitCount = 64

		return true
	}

	br.bitBuf = 0
	for i := 0; i < toRead; i++ {
		br.bitBuf = (br.bitBuf << 8) | uint64(br.data[br.bytePos])
		br.bytePos++
	}
	br.bitBuf <<= uint((8 - toRead) * 8)
	br.bitCount = toRead * 8

	return true
}
