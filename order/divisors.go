package order

import (
	"context"
	"math/big"
	"sort"
)

// smallPrimeBound is the trial division limit before switching to rho
const smallPrimeBound = 1 << 16

// primalityRounds is the number of Miller-Rabin rounds used by ProbablyPrime
const primalityRounds = 32

// primeFactors returns the distinct prime factors of n in increasing order.
// Small primes are removed by trial division and the cofactor is split with
// Pollard-Brent rho.
func primeFactors(ctx context.Context, n *big.Int) ([]*big.Int, error) {
	rest := new(big.Int).Set(n)
	var primes []*big.Int

	one := big.NewInt(1)
	d := new(big.Int)
	quo, rem := new(big.Int), new(big.Int)
	for p := int64(2); p < smallPrimeBound && rest.Cmp(one) > 0; p++ {
		d.SetInt64(p)
		if new(big.Int).Mul(d, d).Cmp(rest) > 0 {
			break
		}
		quo.QuoRem(rest, d, rem)
		if rem.Sign() != 0 {
			continue
		}
		primes = append(primes, big.NewInt(p))
		for rem.Sign() == 0 {
			rest.Set(quo)
			quo.QuoRem(rest, d, rem)
		}
	}

	stack := []*big.Int{}
	if rest.Cmp(one) > 0 {
		stack = append(stack, rest)
	}
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if m.ProbablyPrime(primalityRounds) {
			primes = appendDistinct(primes, m)
			continue
		}
		f, err := brent(ctx, m)
		if err != nil {
			return nil, err
		}
		stack = append(stack, f, new(big.Int).Quo(m, f))
	}

	sort.Slice(primes, func(i, j int) bool {
		return primes[i].Cmp(primes[j]) < 0
	})
	return primes, nil
}

func appendDistinct(primes []*big.Int, p *big.Int) []*big.Int {
	for _, q := range primes {
		if q.Cmp(p) == 0 {
			return primes
		}
	}
	return append(primes, new(big.Int).Set(p))
}

// brent returns a non-trivial factor of the composite n. Each failed run
// restarts with the next constant in x^2 + c.
func brent(ctx context.Context, n *big.Int) (*big.Int, error) {
	if n.Bit(0) == 0 {
		return big.NewInt(2), nil
	}
	const batch = 128
	one := big.NewInt(1)

	for c := int64(1); ; c++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cc := big.NewInt(c)
		step := func(x *big.Int) *big.Int {
			x.Mul(x, x)
			x.Add(x, cc)
			return x.Mod(x, n)
		}

		y := big.NewInt(2)
		x := new(big.Int)
		ys := new(big.Int)
		g := big.NewInt(1)
		acc := big.NewInt(1)
		diff := new(big.Int)

		for r := 1; g.Cmp(one) == 0; r *= 2 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			x.Set(y)
			for i := 0; i < r; i++ {
				step(y)
			}
			for k := 0; k < r && g.Cmp(one) == 0; k += batch {
				ys.Set(y)
				for i := 0; i < batch && i < r-k; i++ {
					step(y)
					diff.Sub(x, y)
					diff.Abs(diff)
					acc.Mul(acc, diff)
					acc.Mod(acc, n)
				}
				g.GCD(nil, nil, acc, n)
			}
		}

		if g.Cmp(n) == 0 {
			// the batch overshot; replay one step at a time from ys
			for {
				step(ys)
				diff.Sub(x, ys)
				diff.Abs(diff)
				g.GCD(nil, nil, diff, n)
				if g.Cmp(one) != 0 {
					break
				}
			}
		}
		if g.Cmp(n) != 0 {
			return g, nil
		}
		log.Debugf("rho with c=%d failed on %s, retrying", c, n)
	}
}
