package codec

// lzfCompress and lzfDecompress implement the LZF-variant byte compressor
// spec.md §4.A requires sit on top of the RLZ integer stream: literal runs
// up to 32 bytes prefixed by a length-1 control byte, and back-references
// encoded as a 2- or 3-byte header carrying (length-2, offset-1), offset
// capped at 8192 and length at 264. This is the same family of format as
// the classic liblzf (minimum match length 3, 13-bit offset, 8-bit extra
// length byte for long matches) that UIMF's own compressor is built on.
//
// The control byte disambiguates the two cases by range: values 0-31 are a
// literal run of ctrl+1 bytes; values 32-255 are a back-reference whose top
// 3 bits hold the short length field (1-7), 7 being the long-form sentinel
// that consumes one extra length byte.
const (
	hashLog      = 13
	hashSize     = 1 << hashLog
	maxLiteral   = 1 << 5   // 32
	maxOffset    = 1 << 13  // 8192
	maxShortLen  = 7        // sentinel value for the long form
	minMatchLen  = 3
	maxMatchLen  = minMatchLen + (maxShortLen - 1) + 255 // 264
)

func hash3(b0, b1, b2 byte) uint32 {
	v := uint32(b0)<<16 | uint32(b1)<<8 | uint32(b2)
	return (v * 2654435761) >> (32 - hashLog)
}

// lzfCompress returns the LZF-variant encoding of in. An empty input yields
// an empty output (spec.md §4.A: "output blob length is ≥0; empty if all
// inputs are zero" applies transitively since an all-zero RLZ stream is
// itself empty).
func lzfCompress(in []byte) []byte {
	n := len(in)
	if n == 0 {
		return nil
	}

	htab := make([]int32, hashSize)
	for i := range htab {
		htab[i] = -1
	}

	out := make([]byte, 0, n+n/16+4)
	litStart := 0
	ip := 0

	flushLiteral := func(end int) {
		for litStart < end {
			run := end - litStart
			if run > maxLiteral {
				run = maxLiteral
			}
			out = append(out, byte(run-1))
			out = append(out, in[litStart:litStart+run]...)
			litStart += run
		}
	}

	for ip+minMatchLen <= n {
		h := hash3(in[ip], in[ip+1], in[ip+2])
		ref := int(htab[h])
		htab[h] = int32(ip)

		if ref >= 0 && ip-ref <= maxOffset &&
			in[ref] == in[ip] && in[ref+1] == in[ip+1] && in[ref+2] == in[ip+2] {

			flushLiteral(ip)

			matchLen := minMatchLen
			limit := n - ip
			if limit > maxMatchLen {
				limit = maxMatchLen
			}
			for matchLen < limit && in[ref+matchLen] == in[ip+matchLen] {
				matchLen++
			}

			offsetMinus1 := ip - ref - 1
			lenField := matchLen - 2

			if lenField < maxShortLen {
				out = append(out,
					byte(lenField<<5)|byte(offsetMinus1>>8),
					byte(offsetMinus1))
			} else {
				out = append(out,
					byte(maxShortLen<<5)|byte(offsetMinus1>>8),
					byte(lenField-maxShortLen),
					byte(offsetMinus1))
			}

			ip += matchLen
			litStart = ip
		} else {
			ip++
		}
	}

	flushLiteral(n)
	return out
}

// lzfDecompress inverts lzfCompress. The control stream is self-terminating:
// decoding stops exactly when the compressed input is exhausted.
func lzfDecompress(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in)*2)
	ip := 0
	n := len(in)

	for ip < n {
		ctrl := int(in[ip])
		ip++

		if ctrl < maxLiteral {
			run := ctrl + 1
			if ip+run > n {
				return nil, errTruncatedLiteral
			}
			out = append(out, in[ip:ip+run]...)
			ip += run
			continue
		}

		lenField := ctrl >> 5
		if ip >= n {
			return nil, errTruncatedMatch
		}
		if lenField == maxShortLen {
			lenField += int(in[ip])
			ip++
		}
		if ip >= n {
			return nil, errTruncatedMatch
		}
		offsetMinus1 := (ctrl&0x1f)<<8 | int(in[ip])
		ip++

		matchLen := lenField + 2
		refPos := len(out) - offsetMinus1 - 1
		if refPos < 0 {
			return nil, errBadBackReference
		}

		for i := 0; i < matchLen; i++ {
			out = append(out, out[refPos+i])
		}
	}

	return out, nil
}
