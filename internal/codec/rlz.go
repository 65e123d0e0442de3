// Package codec implements the intensity codec of a UIMF dataset: run-length
// zero (RLZ) encoding of a sparse bin→intensity vector, followed by the
// LZF-variant byte compressor whose bit-exact output is part of the file
// format (spec.md §4.A).
package codec

import "encoding/binary"

// Pair is a decoded (bin, intensity) sample.
type Pair struct {
	Bin       int32
	Intensity int32
}

// Stats are the derived quantities computed while encoding (spec.md §4.A).
type Stats struct {
	TIC          int64
	BPI          int32
	BPIBin       int32
	NonZeroCount int32
}

// Encode takes a dense vector indexed by bin (length == bin count) and
// returns the RLZ+LZF blob together with the derived TIC/BPI/BPIBin/
// NonZeroCount. A vector with no non-zero entries yields an empty blob.
func Encode(intensities []int32) ([]byte, Stats, error) {
	words := make([]int32, 0, 2*len(intensities)/8+1)
	stats := Stats{BPIBin: -1}
	previous := int32(-1)

	for bin, v := range intensities {
		if v < 0 {
			return nil, Stats{}, &InvalidIntensity{Bin: bin, Value: int(v)}
		}
		if v == 0 {
			continue
		}

		skip := int32(bin) - previous - 1
		if skip > 0 {
			words = append(words, -skip)
		}
		words = append(words, v)
		previous = int32(bin)

		stats.TIC += int64(v)
		stats.NonZeroCount++
		if v > stats.BPI {
			stats.BPI = v
			stats.BPIBin = int32(bin)
		}
	}

	return packAndCompress(words), stats, nil
}

// EncodeSparse encodes pairs already given as (bin, intensity), assumed
// strictly positive intensity and ascending bin order. timeOffset shifts the
// effective starting cursor the same way previous_bin=-1 does for Encode:
// Encode is the time_offset=1 special case of this same alternation
// (spec.md §4.A, §8 invariant 3).
func EncodeSparse(pairs []Pair, timeOffset int32) ([]byte, Stats, error) {
	words := make([]int32, 0, 2*len(pairs)+1)
	stats := Stats{BPIBin: -1}
	previous := -timeOffset

	for _, p := range pairs {
		if p.Intensity <= 0 {
			return nil, Stats{}, &InvalidIntensity{Bin: int(p.Bin), Value: int(p.Intensity)}
		}

		skip := p.Bin - previous - 1
		if skip > 0 {
			words = append(words, -skip)
		}
		words = append(words, p.Intensity)
		previous = p.Bin

		stats.TIC += int64(p.Intensity)
		stats.NonZeroCount++
		if p.Intensity > stats.BPI {
			stats.BPI = p.Intensity
			stats.BPIBin = p.Bin
		}
	}

	return packAndCompress(words), stats, nil
}

func packAndCompress(words []int32) []byte {
	if len(words) == 0 {
		return nil
	}
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(raw[4*i:], uint32(w))
	}
	return lzfCompress(raw)
}

// Decode inverts Encode/EncodeSparse, returning the non-zero (bin,
// intensity) pairs in ascending bin order.
func Decode(blob []byte) ([]Pair, error) {
	var pairs []Pair
	err := DecodeInto(blob, func(bin, val int32) error {
		pairs = append(pairs, Pair{Bin: bin, Intensity: val})
		return nil
	})
	return pairs, err
}

// DecodeInto streams decoded (bin, intensity) samples to fn without building
// an intermediate slice; used by the spectrum cache and the bin-centric
// builder when summing across many scans.
func DecodeInto(blob []byte, fn func(bin, val int32) error) error {
	if len(blob) == 0 {
		return nil
	}

	raw, err := lzfDecompress(blob)
	if err != nil {
		return err
	}
	if len(raw)%4 != 0 {
		return errTruncatedLiteral
	}

	cursor := int32(1)
	for i := 0; i+4 <= len(raw); i += 4 {
		w := int32(binary.LittleEndian.Uint32(raw[i:]))
		if w < 0 {
			cursor += -w
			continue
		}
		bin := cursor - 1
		if err := fn(bin, w); err != nil {
			return err
		}
		cursor++
	}

	return nil
}
