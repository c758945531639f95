package mtcrypto

import "testing"

func TestDeriveKeyIVDeterministic(t *testing.T) {
	authKey := make([]byte, 256)
	for i := range authKey {
		authKey[i] = byte(i)
	}
	plaintext := make([]byte, 64)
	msgKey := DeriveMessageKeyOuter(authKey, ToServer, plaintext)
	if len(msgKey) != 16 {
		t.Fatalf("msg_key length %d, want 16", len(msgKey))
	}
	key, iv := DeriveKeyIV(authKey, msgKey, ToServer)
	if len(key) != 32 || len(iv) != 32 {
		t.Fatalf("key/iv lengths %d/%d, want 32/32", len(key), len(iv))
	}
	key2, iv2 := DeriveKeyIV(authKey, msgKey, ToServer)
	if string(key) != string(key2) || string(iv) != string(iv2) {
		t.Fatal("derivation is not deterministic")
	}
	keyClient, _ := DeriveKeyIV(authKey, msgKey, ToClient)
	if string(key) == string(keyClient) {
		t.Fatal("client and server directions must diverge")
	}
}
