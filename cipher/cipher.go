// Package cipher composes linear feedback shift registers into an
// irregularly clocked keystream generator.
package cipher

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ppopth/lfsr-analysis/field"
	"github.com/ppopth/lfsr-analysis/register"
)

var log = logging.Logger("cipher")

// RegisterSpec describes one register of a cipher
type RegisterSpec struct {
	Size       int   `json:"size"`
	Taps       []int `json:"taps"`
	ClockIndex int   `json:"clock_index"`
}

// Config describes a cipher. Zero Field, Clock and Combiner default to
// GF(2), MajorityRule and FieldSum.
type Config struct {
	Field     field.Field
	Registers []RegisterSpec
	IVLength  int
	WarmUp    int
	Clock     ClockControl
	Combiner  Combiner
}

// ReferenceConfig returns the three-register majority-clocked design
func ReferenceConfig() Config {
	return Config{
		Field: field.NewGF2(),
		Registers: []RegisterSpec{
			{Size: 19, Taps: []int{18, 17, 16, 13}, ClockIndex: 8},
			{Size: 22, Taps: []int{21, 20}, ClockIndex: 10},
			{Size: 23, Taps: []int{22, 21, 20, 7}, ClockIndex: 10},
		},
		IVLength: 22,
		WarmUp:   100,
		Clock:    MajorityRule{},
		Combiner: FieldSum{},
	}
}

// Cipher is a set of registers advanced by a clock-control rule. It is not
// safe for concurrent use.
type Cipher struct {
	cfg         Config
	regs        []*register.Register
	keyLength   int
	initialized bool
}

// New builds a cipher with every register zero
func New(cfg Config) (*Cipher, error) {
	if cfg.Field == nil {
		cfg.Field = field.NewGF2()
	}
	if cfg.Clock == nil {
		cfg.Clock = MajorityRule{}
	}
	if cfg.Combiner == nil {
		cfg.Combiner = FieldSum{}
	}
	if len(cfg.Registers) == 0 {
		return nil, fmt.Errorf("cipher needs at least one register")
	}
	if cfg.IVLength < 0 {
		return nil, fmt.Errorf("negative IV length %d", cfg.IVLength)
	}
	if cfg.WarmUp < 0 {
		return nil, fmt.Errorf("negative warm-up %d", cfg.WarmUp)
	}

	c := &Cipher{cfg: cfg}
	for i, spec := range cfg.Registers {
		r, err := register.New(cfg.Field, spec.Size, spec.Taps, register.WithClockControl(spec.ClockIndex))
		if err != nil {
			return nil, fmt.Errorf("register %d: %w", i, err)
		}
		c.regs = append(c.regs, r)
		c.keyLength += spec.Size
	}
	return c, nil
}

// Field returns the field of the register cells
func (c *Cipher) Field() field.Field {
	return c.cfg.Field
}

// KeyLength returns the sum of the register sizes
func (c *Cipher) KeyLength() int {
	return c.keyLength
}

// IVLength returns the required IV length
func (c *Cipher) IVLength() int {
	return c.cfg.IVLength
}

// Initialized reports whether Initialize has succeeded
func (c *Cipher) Initialized() bool {
	return c.initialized
}

// Registers returns copies of the registers
func (c *Cipher) Registers() []*register.Register {
	out := make([]*register.Register, len(c.regs))
	for i, r := range c.regs {
		out[i] = r.Clone()
	}
	return out
}

// ClockIrregular advances the registers chosen by the clock-control rule
// and returns which ones moved
func (c *Cipher) ClockIrregular() []bool {
	values := make([]field.Element, len(c.regs))
	for i, r := range c.regs {
		values[i] = r.ClockValue()
	}
	clocked := c.cfg.Clock.Decide(c.cfg.Field, values)
	for i, r := range c.regs {
		if clocked[i] {
			r.Clock()
		}
	}
	return clocked
}

// Initialize loads key and iv and runs the warm-up. The key is split into
// contiguous chunks, one per register in order. iv[i] is then added to
// cell i of every register longer than i. A nil iv stands for zeros.
//
// Lengths are checked before any register is touched. On error the
// register state is unchanged and the cipher reports itself uninitialized.
func (c *Cipher) Initialize(key, iv []field.Element) error {
	c.initialized = false
	if len(key) != c.keyLength {
		return &KeyLengthError{Got: len(key), Want: c.keyLength}
	}
	if iv == nil {
		iv = make([]field.Element, c.cfg.IVLength)
		for i := range iv {
			iv[i] = c.cfg.Field.Zero()
		}
	} else if len(iv) != c.cfg.IVLength {
		return &IVLengthError{Got: len(iv), Want: c.cfg.IVLength}
	}
	if err := c.checkElements("key", key); err != nil {
		return err
	}
	if err := c.checkElements("iv", iv); err != nil {
		return err
	}

	offset := 0
	for _, r := range c.regs {
		n := r.Size()
		// lengths and elements are checked, so Load cannot fail
		if err := r.Load(key[offset : offset+n]); err != nil {
			panic(err)
		}
		offset += n
	}
	for i, v := range iv {
		v = c.cfg.Field.FromUint64(v.Uint64())
		for _, r := range c.regs {
			if r.Size() > i {
				r.Mix(i, v)
			}
		}
	}
	for i := 0; i < c.cfg.WarmUp; i++ {
		c.ClockIrregular()
	}
	c.initialized = true
	log.Debugf("initialized %d registers, %d warm-up steps", len(c.regs), c.cfg.WarmUp)
	return nil
}

func (c *Cipher) checkElements(name string, elems []field.Element) error {
	for i, e := range elems {
		if e == nil || e.Uint64() >= c.cfg.Field.Size() {
			return fmt.Errorf("%s[%d] is not an element of %s", name, i, c.cfg.Field)
		}
	}
	return nil
}

// Next clocks the cipher and returns the combined register outputs
func (c *Cipher) Next() field.Element {
	c.ClockIrregular()
	outputs := make([]field.Element, len(c.regs))
	for i, r := range c.regs {
		outputs[i] = r.Output()
	}
	return c.cfg.Combiner.Combine(c.cfg.Field, outputs)
}

// GenerateKeystream initializes the cipher from key and iv and returns the
// next length keystream elements. Identical arguments always give the
// same keystream.
func (c *Cipher) GenerateKeystream(key, iv []field.Element, length int) (Keystream, error) {
	if length < 0 {
		return nil, fmt.Errorf("negative keystream length %d", length)
	}
	if err := c.Initialize(key, iv); err != nil {
		return nil, err
	}
	ks := make(Keystream, length)
	for i := range ks {
		ks[i] = c.Next()
	}
	return ks, nil
}
