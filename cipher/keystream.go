package cipher

import (
	gocipher "crypto/cipher"
	"fmt"

	"github.com/ppopth/lfsr-analysis/field"
)

// Keystream is the output of a cipher in generation order
type Keystream []field.Element

// Uint64s returns the canonical index of every element
func (k Keystream) Uint64s() []uint64 {
	return field.ToUint64s(k)
}

// Bytes packs the low bit of every element, most significant bit first
func (k Keystream) Bytes() []byte {
	return field.BitsFromElements(k)
}

func (k Keystream) String() string {
	return field.FormatElements(k)
}

type stream struct {
	c *Cipher
}

// NewStream returns a crypto/cipher.Stream that XORs data with the
// keystream of an initialized binary cipher, eight elements per byte with
// the first element in the most significant bit.
func NewStream(c *Cipher) (gocipher.Stream, error) {
	if c.Field().Size() != 2 {
		return nil, fmt.Errorf("byte stream needs a binary cipher, field is %s", c.Field())
	}
	if !c.Initialized() {
		return nil, fmt.Errorf("cipher is not initialized")
	}
	return &stream{c: c}, nil
}

func (s *stream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("cipher: output smaller than input")
	}
	for i, b := range src {
		var k byte
		for j := 0; j < 8; j++ {
			k = k<<1 | byte(s.c.Next().Uint64())
		}
		dst[i] = b ^ k
	}
}
