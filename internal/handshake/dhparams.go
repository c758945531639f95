package handshake

import (
	"errors"
	"math/big"
)

// ErrUnsafeDHParams is returned when the server's (g, dh_prime) pair is
// neither in the known-good whitelist nor passes the fallback safe-prime
// check.
var ErrUnsafeDHParams = errors.New("handshake: dh_prime is not a safe prime for g")

// wellKnownPrimeHex is Telegram's long-standing 2048-bit safe prime, shared
// by every (g, dh_prime) pair below. Checking a candidate prime against
// this table first avoids running Miller-Rabin on the hot path of every
// handshake.
const wellKnownPrimeHex = "c71caeb9c6b1c9048e6c522f70f13f73980d40238e3e21c14934d037563d930" +
	"f48198a0aa7c14058229493d22530f4dbfa336f6e0ac925139543aed44cce7c" +
	"3720fd51f69458705ac68cd4fe6b6b13abdc9746512969328454f18faf8c595" +
	"f642477fe96bb2a941d5bcd1d4ac8cc49880708fa9b378e3c4f3a9060bee67c" +
	"f9a4a4a695811051907e162753b56b0f6b410dba74d8a84b2a14b3144e0ef12" +
	"84754fd17ed950d5965b4b9dd46582db1178d169c6bc465b0d6ff9ca3928fef" +
	"5b9ae4e418fc15e83ebea0f87fa9ff5eed70050ded2849f47bf959d956850ce" +
	"929851f0d8115f635b105ee2e4e15d04b2454bf6f4fadf034b10403119cd8e3b92fcc5b"

var wellKnownGenerators = map[int64]bool{2: true, 3: true, 4: true, 5: true, 6: true, 7: true}

// knownSafePrime is parsed once and reused by VerifyDHParams.
var knownSafePrime *big.Int

func init() {
	knownSafePrime, _ = new(big.Int).SetString(wellKnownPrimeHex, 16)
}

// VerifyDHParams checks that g is a valid generator and dhPrime a safe
// prime for the well-known Telegram group, accepting the fast whitelist
// path when possible and falling back to a Miller-Rabin safe-prime check
// (dhPrime prime and (dhPrime-1)/2 prime) for any unrecognized pair, so a
// future DC rotation never hard-fails the handshake.
func VerifyDHParams(g int64, dhPrime *big.Int) error {
	if knownSafePrime != nil && dhPrime.Cmp(knownSafePrime) == 0 && wellKnownGenerators[g] {
		return nil
	}
	if !wellKnownGenerators[g] && (g < 2 || g > 7) {
		return ErrUnsafeDHParams
	}
	if !dhPrime.ProbablyPrime(64) {
		return ErrUnsafeDHParams
	}
	q := new(big.Int).Sub(dhPrime, big.NewInt(1))
	q.Rsh(q, 1)
	if !q.ProbablyPrime(64) {
		return ErrUnsafeDHParams
	}
	return nil
}
