package mtcrypto

import (
	"math/big"
	"testing"
)

func TestComputeSRPAnswerShapes(t *testing.T) {
	p, _ := new(big.Int).SetString(
		"c71caeb9c6b1c9048e6c522f70f13f73980d40238e3e21c14934d037563d930"+
			"f48198a0aa7c14058229493d22530f4dbfa336f6e0ac925139543aed44cce7c"+
			"3720fd51f69458705ac68cd4fe6b6b13abdc9746512969328454f18faf8c595"+
			"f642477fe96bb2a941d5bcd1d4ac8cc49880708fa9b378e3c4f3a9060bee67c"+
			"f9a4a4a695811051907e162753b56b0f6b410dba74d8a84b2a14b3144e0ef1284754fd17ed950d5965b4b9dd46582db1178d169c6bc465b0d6ff9ca3928fef5b9ae4e418fc15e83ebea0f87fa9ff5eed70050ded2849f47bf959d956850ce929851f0d8115f635b105ee2e4e15d04b2454bf6f4fadf034b10403119cd8e3b92fcc5b",
		16,
	)
	params := SRPParams{
		G:     3,
		P:     p.Bytes(),
		Salt1: []byte("salt-one"),
		Salt2: []byte("salt-two"),
		GB:    big.NewInt(987654321).Bytes(),
		Password: []byte("hunter2"),
	}
	a := big.NewInt(42)
	answer, err := ComputeSRPAnswer(params, a)
	if err != nil {
		t.Fatalf("ComputeSRPAnswer: %v", err)
	}
	if len(answer.GA) != 256 {
		t.Fatalf("GA length %d, want 256", len(answer.GA))
	}
	if len(answer.M1) != 32 {
		t.Fatalf("M1 length %d, want 32", len(answer.M1))
	}

	answer2, err := ComputeSRPAnswer(params, a)
	if err != nil {
		t.Fatalf("ComputeSRPAnswer (2nd): %v", err)
	}
	if string(answer.M1) != string(answer2.M1) {
		t.Fatal("SRP answer is not deterministic for a fixed client exponent")
	}
}

func TestPBKDF2Length(t *testing.T) {
	out := pbkdf2HMACSHA512([]byte("pw"), []byte("salt"), 1000, 64)
	if len(out) != 64 {
		t.Fatalf("length %d, want 64", len(out))
	}
}
