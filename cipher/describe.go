package cipher

// RegisterDescription is the structure of one register
type RegisterDescription struct {
	Size           int    `json:"size"`
	Taps           []int  `json:"taps"`
	ClockIndex     int    `json:"clock_index"`
	Characteristic string `json:"characteristic_polynomial"`
}

// Description is the structure of a cipher, for documentation and reports
type Description struct {
	Field     string                `json:"field"`
	Registers []RegisterDescription `json:"registers"`
	KeyLength int                   `json:"key_length"`
	IVLength  int                   `json:"iv_length"`
	WarmUp    int                   `json:"warm_up"`
	ClockRule string                `json:"clock_rule"`
	Combiner  string                `json:"combiner"`
}

// Describe returns the structure of c
func (c *Cipher) Describe() Description {
	d := Description{
		Field:     c.cfg.Field.String(),
		KeyLength: c.keyLength,
		IVLength:  c.cfg.IVLength,
		WarmUp:    c.cfg.WarmUp,
		ClockRule: c.cfg.Clock.String(),
		Combiner:  c.cfg.Combiner.String(),
	}
	for _, r := range c.regs {
		idx, _ := r.ClockIndex()
		d.Registers = append(d.Registers, RegisterDescription{
			Size:           r.Size(),
			Taps:           r.Taps(),
			ClockIndex:     idx,
			Characteristic: r.Characteristic().String(),
		})
	}
	return d
}
