package mtcrypto

import "testing"

func TestFactorizeKnownVectors(t *testing.T) {
	cases := []struct {
		pq   uint64
		p, q uint64
	}{
		{1470626929934143021, 1206429347, 1218991343},
		{2363612107535801713, 1518968219, 1556064227},
		{2804275833720261793, 1555252417, 1803100129},
	}
	for _, c := range cases {
		p, q := Factorize(c.pq)
		if p != c.p || q != c.q {
			t.Fatalf("factorize(%d) = (%d, %d), want (%d, %d)", c.pq, p, q, c.p, c.q)
		}
		if p*q != c.pq {
			t.Fatalf("factors %d * %d != %d", p, q, c.pq)
		}
	}
}

func TestFactorizeEven(t *testing.T) {
	p, q := Factorize(2 * 1000003)
	if p != 2 || q != 1000003 {
		t.Fatalf("got (%d, %d)", p, q)
	}
}

func TestMulMod64(t *testing.T) {
	// Check against a value small enough to verify without 128-bit math:
	// 1000*1000 mod 997 = 1000000 mod 997 = 9.
	if got := mulMod64(1000, 1000, 997); got != 9 {
		t.Fatalf("mulMod64(1000,1000,997) = %d, want 9", got)
	}
}
