package field

import (
	"fmt"
	"strconv"
	"strings"
)

// Bit-level conversions between byte strings and GF(2)-valued elements.
// Bits are read and written most significant bit first.

// ElementsFromBits returns the first n bits of data as 0/1 elements of f
func ElementsFromBits(f Field, data []byte, n int) []Element {
	result := make([]Element, n)
	for i := 0; i < n; i++ {
		byteIdx := i / 8
		bitIdx := i % 8
		var bit uint64
		if byteIdx < len(data) && (data[byteIdx]&(1<<(7-bitIdx))) != 0 {
			bit = 1
		}
		result[i] = f.FromUint64(bit)
	}
	return result
}

// BitsFromElements packs the low bit of each element into bytes.
// If the number of elements is not divisible by 8, the output slice is rounded up
func BitsFromElements(elements []Element) []byte {
	result := make([]byte, (len(elements)+7)/8)
	for i, element := range elements {
		if element.Uint64()&1 == 1 {
			result[i/8] |= 1 << (7 - i%8)
		}
	}
	return result
}

// ParseBits parses a string of '0' and '1' characters. Spaces and
// underscores are ignored.
func ParseBits(f Field, s string) ([]Element, error) {
	var result []Element
	for i, r := range s {
		switch r {
		case '0':
			result = append(result, f.Zero())
		case '1':
			result = append(result, f.One())
		case ' ', '_':
		default:
			return nil, fmt.Errorf("invalid bit %q at offset %d", r, i)
		}
	}
	return result, nil
}

// FormatElements renders elements as a bit string when every element is 0
// or 1, and as a comma separated list otherwise.
func FormatElements(elements []Element) string {
	var sb strings.Builder
	binary := true
	for _, e := range elements {
		if e.Uint64() > 1 {
			binary = false
			break
		}
	}
	for i, e := range elements {
		if !binary && i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(e.Uint64(), 10))
	}
	return sb.String()
}
