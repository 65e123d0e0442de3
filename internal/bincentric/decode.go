// Package bincentric builds and decodes the bin-centric index (spec.md
// §4.F): one BLOB per m/z bin listing every (frame, scan) at which that bin
// had a non-zero intensity, enabling fast extracted-ion-chromatogram
// queries without scanning every Frame_Scans row.
package bincentric

import (
	"encoding/binary"
	"errors"
)

var errTruncatedStream = errors.New("bincentric: truncated intensity stream")

// Pair is a decoded (linear address, intensity) sample from a
// Bin_Intensities blob. Address decomposes as frame = Address /
// ims_scans_per_frame, scan = Address mod ims_scans_per_frame.
type Pair struct {
	Address   int32
	Intensity int32
}

// Decode inverts the per-bin transpose encoding. Unlike internal/codec,
// there is no secondary byte compression here: just a raw little-endian
// int32 RLZ stream over the linear frame·ims_scans_per_frame+scan address
// space, with the cursor incremented before each stored address (spec.md
// §4.F "Decoding for XIC").
func Decode(blob []byte) ([]Pair, error) {
	if len(blob)%4 != 0 {
		return nil, errTruncatedStream
	}

	var pairs []Pair
	cursor := int32(0)
	for i := 0; i+4 <= len(blob); i += 4 {
		w := int32(binary.LittleEndian.Uint32(blob[i:]))
		if w < 0 {
			cursor += -w
			continue
		}
		cursor++
		pairs = append(pairs, Pair{Address: cursor, Intensity: w})
	}
	return pairs, nil
}
