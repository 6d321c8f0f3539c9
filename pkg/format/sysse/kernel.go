package sysse

import "github.com/DCNick3/shin-sub001/pkg/format/nxa"

// The codec is a derivative of the PlayStation SPU ADPCM scheme. Each
// 16-byte block carries a shift/filter header byte and 30 4-bit
// residuals; there is no flags byte.
const (
	blockSizeBytes = 16
	// BlockSize is the number of samples decoded from one block per
	// channel.
	BlockSize = 30
)

type fir2 struct {
	ir1, ir2 int32
}

func (f fir2) evaluate(h history) int32 {
	return f.ir1*h.history1 + f.ir2*h.history2
}

var decoderFirTable = [5]fir2{
	{0, 0},
	{60, 0},
	{115, -52},
	{98, -55},
	{122, -60},
}

type history struct {
	history1, history2 int32
}

func (h *history) push(sample int32) {
	h.history2 = h.history1
	h.history1 = sample
}

// signExtend4 interprets the low nibble as a two's complement value.
func signExtend4(bits byte) int32 {
	return int32(bits&0xf) << 28 >> 28
}

func decodeBlock(h *history, block []byte) [BlockSize]int16 {
	shift := block[0] & 0xf
	filter := block[0] >> 4 & 7
	fir := decoderFirTable[filter]

	var samples [BlockSize]int16
	for i, b := range block[1:blockSizeBytes] {
		samples[i*2] = decodeSample(h, fir, shift, signExtend4(b))
		samples[i*2+1] = decodeSample(h, fir, shift, signExtend4(b>>4))
	}
	return samples
}

func decodeSample(h *history, fir fir2, shift byte, residual int32) int16 {
	predicted := fir.evaluate(*h)
	predicted += 32
	if predicted < 0 {
		// round towards zero
		predicted += 63
	}
	predicted >>= 6

	sample := predicted + residual<<shift
	sample = min(max(sample, -0x8000), 0x7fff)

	h.push(sample)
	return int16(sample)
}

func convertSample(sample int16) float32 {
	v := float32(sample) / 0x7fff
	return min(max(v, -1), 1)
}

// kernel decodes the interleaved block stream of one sound. Stereo
// sounds alternate left and right blocks.
type kernel struct {
	data   []byte
	stereo bool

	left  history
	right history
}

func newKernel(data []byte, channelCount uint16) *kernel {
	return &kernel{data: data, stereo: channelCount == 2}
}

func (k *kernel) next() ([]byte, bool) {
	if len(k.data) < blockSizeBytes {
		return nil, false
	}
	block := k.data[:blockSizeBytes]
	k.data = k.data[blockSizeBytes:]
	return block, true
}

func (k *kernel) decodeBlock() ([BlockSize]nxa.Sample, bool) {
	var out [BlockSize]nxa.Sample

	blockLeft, ok := k.next()
	if !ok {
		return out, false
	}
	left := decodeBlock(&k.left, blockLeft)

	if !k.stereo {
		for i, s := range left {
			v := convertSample(s)
			out[i] = nxa.Sample{v, v}
		}
		return out, true
	}

	blockRight, ok := k.next()
	if !ok {
		return out, false
	}
	right := decodeBlock(&k.right, blockRight)
	for i := range left {
		out[i] = nxa.Sample{convertSample(left[i]), convertSample(right[i])}
	}
	return out, true
}
