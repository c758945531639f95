package tl

import "testing"

func TestBytesRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 253, 254, 255, 300, 1 << 16} {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i)
		}
		e := NewEncoder(0)
		e.Bytes(payload)
		if e.Len()%4 != 0 {
			t.Fatalf("n=%d: encoded length %d not 4-byte aligned", n, e.Len())
		}
		d := NewDecoder(e.Finish())
		got, err := d.Bytes()
		if err != nil {
			t.Fatalf("n=%d: decode: %v", n, err)
		}
		if len(got) != n {
			t.Fatalf("n=%d: got length %d", n, len(got))
		}
		for i := range got {
			if got[i] != payload[i] {
				t.Fatalf("n=%d: mismatch at %d", n, i)
			}
		}
		if d.Remaining() != 0 {
			t.Fatalf("n=%d: %d trailing bytes", n, d.Remaining())
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	e := NewEncoder(0)
	e.String("hello, world")
	d := NewDecoder(e.Finish())
	got, err := d.String()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "hello, world" {
		t.Fatalf("got %q", got)
	}
}

func TestIntRoundTrip(t *testing.T) {
	e := NewEncoder(0)
	e.Int32(-1)
	e.UInt64(0xDEADBEEFCAFEBABE)
	d := NewDecoder(e.Finish())
	i32, err := d.Int32()
	if err != nil || i32 != -1 {
		t.Fatalf("Int32: %v, %v", i32, err)
	}
	u64, err := d.UInt64()
	if err != nil || u64 != 0xDEADBEEFCAFEBABE {
		t.Fatalf("UInt64: %v, %v", u64, err)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	e := NewEncoder(0)
	e.Bool(true)
	e.Bool(false)
	d := NewDecoder(e.Finish())
	tv, err := d.Bool()
	if err != nil || !tv {
		t.Fatalf("expected true, got %v, %v", tv, err)
	}
	fv, err := d.Bool()
	if err != nil || fv {
		t.Fatalf("expected false, got %v, %v", fv, err)
	}
}

func TestExpectIDMismatch(t *testing.T) {
	e := NewEncoder(0)
	e.ID(0x1234)
	d := NewDecoder(e.Finish())
	err := d.ExpectID(0x5678)
	var mismatch *UnexpectedConstructor
	if err == nil {
		t.Fatal("expected error")
	}
	if !asUnexpectedConstructor(err, &mismatch) {
		t.Fatalf("wrong error type: %v", err)
	}
	if mismatch.Got != 0x1234 || mismatch.Expected != 0x5678 {
		t.Fatalf("unexpected fields: %+v", mismatch)
	}
}

func asUnexpectedConstructor(err error, target **UnexpectedConstructor) bool {
	if uc, ok := err.(*UnexpectedConstructor); ok {
		*target = uc
		return true
	}
	return false
}

func TestVectorRoundTrip(t *testing.T) {
	values := []int32{1, 2, 3, 4, 5}
	e := NewEncoder(0)
	e.BoxedVector(len(values), func(i int) { e.Int32(values[i]) })
	d := NewDecoder(e.Finish())
	var got []int32
	n, err := d.Vector(func(i int) error {
		v, err := d.Int32()
		got = append(got, v)
		return err
	})
	if err != nil {
		t.Fatalf("vector: %v", err)
	}
	if n != len(values) {
		t.Fatalf("count %d != %d", n, len(values))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], values[i])
		}
	}
}

func TestTooShort(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3})
	if _, err := d.UInt32(); err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}
