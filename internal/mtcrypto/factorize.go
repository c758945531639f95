package mtcrypto

import "fmt"

// brentCParams are the fallback perturbation constants tried in order;
// Pollard's rho occasionally cycles without finding a nontrivial factor
// for a given c, so several are tried before giving up.
var brentCParams = []uint64{1, 2, 3, 5, 7}

// Factorize splits pq into its two prime factors p < q using Brent's
// variant of Pollard's rho algorithm. pq must be the product of two
// distinct primes fitting in 64 bits, which holds for every pq Telegram's
// servers emit during the handshake. Factorize panics if none of the
// fallback parameters succeed; per the protocol this indicates a
// malformed or hostile server response, not a recoverable condition.
func Factorize(pq uint64) (p, q uint64) {
	if pq%2 == 0 {
		return 2, pq / 2
	}
	for _, c := range brentCParams {
		if d, ok := brentPollardRho(pq, c); ok && d != 1 && d != pq {
			other := pq / d
			if d < other {
				return d, other
			}
			return other, d
		}
	}
	panic(fmt.Sprintf("mtcrypto: factorize failed for pq=%d", pq))
}

// brentPollardRho runs Brent's cycle-detection variant of Pollard's rho
// with perturbation constant c, returning a nontrivial divisor of n.
func brentPollardRho(n, c uint64) (uint64, bool) {
	if n < 2 {
		return 0, false
	}
	x := uint64(2)
	y := x
	g := uint64(1)
	r := uint64(1)
	q := uint64(1)
	var ys uint64

	f := func(v uint64) uint64 {
		return (mulMod64(v, v, n) + c) % n
	}

	for g == 1 {
		x = y
		for i := uint64(0); i < r; i++ {
			y = f(y)
		}
		k := uint64(0)
		for k < r && g == 1 {
			ys = y
			m := min64(128, r-k)
			for i := uint64(0); i < m; i++ {
				y = f(y)
				diff := absDiff(x, y)
				q = mulMod64(q, diff, n)
			}
			g = gcd64(q, n)
			k += m
		}
		r *= 2
		if r > 1<<40 {
			// Pathological cycle for this c; let the caller try another.
			return 0, false
		}
	}
	if g == n {
		for {
			ys = f(ys)
			diff := absDiff(x, ys)
			g = gcd64(diff, n)
			if g > 1 {
				break
			}
		}
	}
	return g, g != n
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

func gcd64(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
