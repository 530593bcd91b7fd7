package sourcemap

import (
	"errors"
	"fmt"
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	vlqShift        = 5
	vlqContinuation = 1 << vlqShift
	vlqMask         = vlqContinuation - 1
)

var base64Index = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		idx[base64Alphabet[i]] = int8(i)
	}
	return idx
}()

// ErrVLQOverflow is returned when a VLQ does not fit in an int64.
var ErrVLQOverflow = errors.New("vlq: overflow")

// AppendVLQ appends the base64 VLQ encoding of v to dst. The sign goes in
// the low bit of the first digit, followed by the magnitude in 5-bit groups,
// least significant first. Every int64 is representable.
func AppendVLQ(dst []byte, v int64) []byte {
	var sign uint64
	mag := uint64(v)
	if v < 0 {
		sign = 1
		mag = -mag
	}

	digit := (mag&0x0f)<<1 | sign
	mag >>= 4
	for {
		if mag > 0 {
			digit |= vlqContinuation
		}
		dst = append(dst, base64Alphabet[digit])
		if mag == 0 {
			return dst
		}
		digit = mag & vlqMask
		mag >>= vlqShift
	}
}

// EncodeVLQ returns the base64 VLQ encoding of v.
func EncodeVLQ(v int64) string {
	return string(AppendVLQ(make([]byte, 0, 4), v))
}

// DecodeVLQ decodes one VLQ from the start of s and returns the value and
// the number of bytes consumed.
func DecodeVLQ(s string) (int64, int, error) {
	var (
		mag   uint64
		sign  bool
		shift uint
	)
	for i := 0; i < len(s); i++ {
		d := base64Index[s[i]]
		if d < 0 {
			return 0, 0, fmt.Errorf("vlq: invalid character %q at %d", s[i], i)
		}

		if i == 0 {
			sign = d&1 != 0
			mag = uint64(d&vlqMask) >> 1
			shift = 4
		} else {
			if shift >= 64 {
				return 0, 0, ErrVLQOverflow
			}
			mag |= uint64(d&vlqMask) << shift
			shift += vlqShift
		}

		if d&vlqContinuation == 0 {
			if sign {
				if mag > 1<<63 {
					return 0, 0, ErrVLQOverflow
				}
				return int64(-mag), i + 1, nil
			}
			if mag > 1<<63-1 {
				return 0, 0, ErrVLQOverflow
			}
			return int64(mag), i + 1, nil
		}
	}
	return 0, 0, errors.New("vlq: unterminated sequence")
}
