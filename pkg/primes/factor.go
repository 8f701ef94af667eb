package primes

import "math/big"

// Factorize returns the prime factors of n in ascending order, with
// multiplicity. It returns nil for n < 2. The product of the result equals n.
//
// Trial division runs over a snapshot of the cached primes and then over odd
// candidates past the cache; the cache itself is never grown here.
func (r *Registry) Factorize(n *big.Int) []*big.Int {
	if n == nil || n.Cmp(bigTwo) < 0 {
		return nil
	}

	r.mu.RLock()
	ps := r.primes
	r.mu.RUnlock()

	var factors []*big.Int
	rem := new(big.Int).Set(n)

	i := 0
	if !rem.IsUint64() {
		q, m := new(big.Int), new(big.Int)
		d := new(big.Int)
		for ; i < len(ps) && !rem.IsUint64(); i++ {
			d.SetUint64(ps[i])
			for {
				q.QuoRem(rem, d, m)
				if m.Sign() != 0 {
					break
				}
				factors = append(factors, new(big.Int).Set(d))
				rem.Set(q)
			}
		}
		if !rem.IsUint64() {
			return append(factors, factorBig(rem, ps)...)
		}
	}

	for _, f := range factorUint64(rem.Uint64(), ps[i:]) {
		factors = append(factors, new(big.Int).SetUint64(f))
	}
	return factors
}

// factorUint64 trial-divides v by ps and then by odd candidates past the
// last element of ps.
func factorUint64(v uint64, ps []uint64) []uint64 {
	var out []uint64
	for _, p := range ps {
		if p > v/p {
			break
		}
		for v%p == 0 {
			out = append(out, p)
			v /= p
		}
	}
	if v == 1 {
		return out
	}

	d := uint64(3)
	if len(ps) > 0 {
		d = ps[len(ps)-1] + 1
		if d%2 == 0 {
			d++
		}
	} else {
		for v%2 == 0 {
			out = append(out, 2)
			v /= 2
		}
	}
	return append(out, factorOdd(v, d)...)
}

// factorOdd factors v, which has no prime factor below the odd candidate d.
func factorOdd(v, d uint64) []uint64 {
	if v < 2 {
		return nil
	}
	if new(big.Int).SetUint64(v).ProbablyPrime(20) {
		return []uint64{v}
	}

	var out []uint64
	for ; d <= v/d; d += 2 {
		for v%d == 0 {
			out = append(out, d)
			v /= d
		}
	}
	if v > 1 {
		out = append(out, v)
	}
	return out
}

// factorBig handles the part of n too large for uint64 once the cached
// primes are exhausted. The remainder is only retested for primality after a
// division changed it.
func factorBig(n *big.Int, ps []uint64) []*big.Int {
	if n.ProbablyPrime(20) {
		return []*big.Int{new(big.Int).Set(n)}
	}

	var out []*big.Int
	rem := new(big.Int).Set(n)
	changed := false
	d := big.NewInt(3)
	if len(ps) > 0 {
		d.SetUint64(ps[len(ps)-1] + 1)
		if d.Bit(0) == 0 {
			d.Add(d, big.NewInt(1))
		}
	} else {
		for rem.Bit(0) == 0 {
			out = append(out, big.NewInt(2))
			rem.Rsh(rem, 1)
			changed = true
		}
	}

	step := big.NewInt(2)
	q, m, sq := new(big.Int), new(big.Int), new(big.Int)
	for {
		if rem.IsUint64() {
			for _, f := range factorOdd(rem.Uint64(), d.Uint64()) {
				out = append(out, new(big.Int).SetUint64(f))
			}
			return out
		}
		if changed {
			if rem.ProbablyPrime(20) {
				return append(out, rem)
			}
			changed = false
		}
		if sq.Mul(d, d).Cmp(rem) > 0 {
			return append(out, rem)
		}
		for {
			q.QuoRem(rem, d, m)
			if m.Sign() != 0 {
				break
			}
			out = append(out, new(big.Int).Set(d))
			rem.Set(q)
			changed = true
		}
		d.Add(d, step)
	}
}
