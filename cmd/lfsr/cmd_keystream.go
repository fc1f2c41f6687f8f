package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/pbkdf2"

	"github.com/ppopth/lfsr-analysis/cipher"
	"github.com/ppopth/lfsr-analysis/field"
)

type keystreamOptions struct {
	Key        string
	IV         string
	Passphrase string
	Salt       string
	Iterations int
	Length     int
	Format     string
}

func (o *keystreamOptions) AddFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.Key, "key", "", "key bits, one per register cell")
	f.StringVar(&o.IV, "iv", "", "IV bits (default all zero)")
	f.StringVar(&o.Passphrase, "passphrase", "", "derive the key from this passphrase with PBKDF2-SHA256")
	f.StringVar(&o.Salt, "salt", "lfsr-analysis", "PBKDF2 salt")
	f.IntVar(&o.Iterations, "iterations", 4096, "PBKDF2 iterations")
	f.IntVarP(&o.Length, "length", "n", 100, "number of keystream elements")
}

// key returns the key elements for c, from --key or --passphrase
func (o *keystreamOptions) key(c *cipher.Cipher) ([]field.Element, error) {
	switch {
	case o.Key != "" && o.Passphrase != "":
		return nil, fmt.Errorf("give either --key or --passphrase, not both")
	case o.Key != "":
		return parseElements(c.Field(), o.Key)
	case o.Passphrase != "":
		if c.Field().Size() != 2 {
			return nil, fmt.Errorf("--passphrase needs a cipher over GF(2)")
		}
		if o.Iterations < 1 {
			return nil, fmt.Errorf("invalid iteration count %d", o.Iterations)
		}
		n := c.KeyLength()
		derived := pbkdf2.Key([]byte(o.Passphrase), []byte(o.Salt), o.Iterations, (n+7)/8, sha256.New)
		return field.ElementsFromBits(c.Field(), derived, n), nil
	default:
		return nil, fmt.Errorf("no key given, use --key or --passphrase")
	}
}

type keystreamOutput struct {
	Keystream string `json:"keystream"`
	Hex       string `json:"hex,omitempty"`
	Length    int    `json:"length"`
}

func newKeystreamCommand(g *globalOptions) *cobra.Command {
	var opts keystreamOptions
	cmd := &cobra.Command{
		Use:   "keystream [flags]",
		Short: "Generate keystream from the reference cipher",
		Long: `
The "keystream" command loads the key into the three registers of the
reference design (19, 22 and 23 cells), adds the IV, runs the warm-up and
prints the next keystream bits. The same key and IV always give the same
keystream.
`,
		Example:           "  lfsr keystream --passphrase 'correct horse' -n 64 --format hex",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Length < 0 {
				return fmt.Errorf("negative length %d", opts.Length)
			}
			c, err := cipher.New(cipher.ReferenceConfig())
			if err != nil {
				return err
			}
			key, err := opts.key(c)
			if err != nil {
				return err
			}
			iv, err := parseElements(c.Field(), opts.IV)
			if err != nil {
				return err
			}
			ks, err := c.GenerateKeystream(key, iv, opts.Length)
			if err != nil {
				return err
			}

			out := keystreamOutput{Keystream: ks.String(), Length: len(ks)}
			text := out.Keystream
			if opts.Format == "hex" {
				out.Hex = hex.EncodeToString(ks.Bytes())
				text = out.Hex
			} else if opts.Format != "bits" {
				return fmt.Errorf("unknown format %q", opts.Format)
			}
			return g.print(cmd.OutOrStdout(), out, text)
		},
	}
	opts.AddFlags(cmd)
	cmd.Flags().StringVar(&opts.Format, "format", "bits", "text output: bits or hex")
	return cmd
}
