// Package save reads and writes the obfuscated save files.
package save

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// The obfuscation key is derived from a game-specific seed string.
const gameKeySeed = "うみねこのなく頃に咲"

// GameKey is the obfuscation key of the game's own save files.
var GameKey = KeyFromSeed(gameKeySeed)

// KeyFromSeed derives an obfuscation key from a seed string.
func KeyFromSeed(seed string) uint32 {
	return crc32.ChecksumIEEE([]byte(seed))
}

// The "crypto" walks the data in 4-byte words, XORing each word with a
// rolling key. The key absorbs the CRC of the word that just passed,
// so a flipped bit garbles everything after it.

func decodeOnce(data []byte, key uint32) {
	for off := 0; off < len(data); off += 4 {
		var chunk [4]byte
		n := copy(chunk[:], data[off:])

		word := binary.BigEndian.Uint32(chunk[:])
		binary.BigEndian.PutUint32(chunk[:], word^key)
		copy(data[off:], chunk[:n])

		// the key absorbs the plaintext word
		var le [4]byte
		binary.LittleEndian.PutUint32(le[:], word)
		key ^= crc32.ChecksumIEEE(le[:])
	}
}

func encodeOnce(data []byte, key uint32) {
	for off := 0; off < len(data); off += 4 {
		var chunk [4]byte
		n := copy(chunk[:], data[off:])

		word := binary.BigEndian.Uint32(chunk[:])
		binary.BigEndian.PutUint32(chunk[:], word^key)
		copy(data[off:], chunk[:n])

		// the key absorbs the obfuscated word
		var le [4]byte
		binary.LittleEndian.PutUint32(le[:], word^key)
		key ^= crc32.ChecksumIEEE(le[:])
	}
}

// Deobfuscate removes the two XOR passes and checks the embedded CRC.
func Deobfuscate(data []byte, key uint32) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("save file too short: %d bytes", len(data))
	}
	stage1 := append([]byte(nil), data...)
	decodeOnce(stage1, key)

	payload := stage1[:len(stage1)-4]
	// the inner pass is keyed by the payload CRC
	sum := binary.LittleEndian.Uint32(stage1[len(stage1)-4:])
	decodeOnce(payload, sum)
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, fmt.Errorf("save file CRC mismatch")
	}
	return payload, nil
}

// Obfuscate applies the inner CRC-keyed pass, appends the CRC and
// applies the outer key pass.
func Obfuscate(data []byte, key uint32) []byte {
	out := make([]byte, len(data), len(data)+4)
	copy(out, data)

	sum := crc32.ChecksumIEEE(out)
	encodeOnce(out, sum)
	out = binary.LittleEndian.AppendUint32(out, sum)

	encodeOnce(out, key)
	return out
}
