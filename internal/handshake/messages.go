package handshake

import (
	"crypto/subtle"
	"errors"
	"math/big"

	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
	"github.com/dantte-lp/gomtproto/internal/tl"
)

// ErrMalformedResponse is returned when a handshake response cannot be
// parsed into the shape Run expects for the current step.
var ErrMalformedResponse = errors.New("handshake: malformed server response")

type resPQ struct {
	Nonce, ServerNonce []byte
	PQ                 []byte
	Fingerprints       []uint64
}

func encodeReqPQMulti(nonce []byte) []byte {
	e := tl.NewEncoder(32)
	e.ID(idReqPQMulti)
	e.Int128(nonce)
	return e.Finish()
}

func decodeResPQ(body []byte) (*resPQ, error) {
	d := tl.NewDecoder(body)
	if err := d.ExpectID(idResPQ); err != nil {
		return nil, err
	}
	nonce, err := d.Int128()
	if err != nil {
		return nil, err
	}
	serverNonce, err := d.Int128()
	if err != nil {
		return nil, err
	}
	pq, err := d.Bytes()
	if err != nil {
		return nil, err
	}
	var fps []uint64
	if _, err := d.Vector(func(i int) error {
		v, err := d.Int64()
		fps = append(fps, uint64(v))
		return err
	}); err != nil {
		return nil, err
	}
	return &resPQ{Nonce: nonce, ServerNonce: serverNonce, PQ: pq, Fingerprints: fps}, nil
}

// encodePQInnerData builds the plaintext p_q_inner_data payload that is
// then RSA-encrypted.
func encodePQInnerData(pq, p, q, nonce, serverNonce, newNonce []byte) []byte {
	e := tl.NewEncoder(256)
	e.ID(idPQInnerData)
	e.Bytes(pq)
	e.Bytes(p)
	e.Bytes(q)
	e.Int128(nonce)
	e.Int128(serverNonce)
	e.Int256(newNonce)
	return e.Finish()
}

func encodeReqDHParams(nonce, serverNonce, p, q []byte, fingerprint uint64, encryptedData []byte) []byte {
	e := tl.NewEncoder(len(encryptedData) + 64)
	e.ID(idReqDHParams)
	e.Int128(nonce)
	e.Int128(serverNonce)
	e.Bytes(p)
	e.Bytes(q)
	e.Int64(int64(fingerprint))
	e.Bytes(encryptedData)
	return e.Finish()
}

type serverDHParams struct {
	Fail          bool
	Nonce, ServerNonce []byte
	NewNonceHash  []byte // only set on fail
	EncryptedData []byte // only set on ok
}

func decodeServerDHParams(body []byte) (*serverDHParams, error) {
	d := tl.NewDecoder(body)
	id, err := d.PeekID()
	if err != nil {
		return nil, err
	}
	switch id {
	case idServerDHParamsFail:
		if err := d.ExpectID(idServerDHParamsFail); err != nil {
			return nil, err
		}
		nonce, err := d.Int128()
		if err != nil {
			return nil, err
		}
		serverNonce, err := d.Int128()
		if err != nil {
			return nil, err
		}
		hash, err := d.Int128()
		if err != nil {
			return nil, err
		}
		return &serverDHParams{Fail: true, Nonce: nonce, ServerNonce: serverNonce, NewNonceHash: hash}, nil
	case idServerDHParamsOk:
		if err := d.ExpectID(idServerDHParamsOk); err != nil {
			return nil, err
		}
		nonce, err := d.Int128()
		if err != nil {
			return nil, err
		}
		serverNonce, err := d.Int128()
		if err != nil {
			return nil, err
		}
		enc, err := d.Bytes()
		if err != nil {
			return nil, err
		}
		return &serverDHParams{Fail: false, Nonce: nonce, ServerNonce: serverNonce, EncryptedData: enc}, nil
	default:
		return nil, ErrMalformedResponse
	}
}

type serverDHInnerData struct {
	Nonce, ServerNonce []byte
	G                  int64
	DHPrime            *big.Int
	GA                 *big.Int
	ServerTime         int32
}

// decryptServerDHInnerData IGE-decrypts encryptedData under (key, iv) and
// parses the server_DH_inner_data payload, verifying its embedded SHA1.
func decryptServerDHInnerData(key, iv, encryptedData []byte) (*serverDHInnerData, error) {
	plain, err := mtcrypto.IGEDecrypt(key, iv, encryptedData)
	if err != nil {
		return nil, err
	}
	if len(plain) < 20 {
		return nil, ErrMalformedResponse
	}
	hash := plain[:20]
	body := plain[20:]

	d := tl.NewDecoder(body)
	if err := d.ExpectID(idServerDHInnerData); err != nil {
		return nil, err
	}
	nonce, err := d.Int128()
	if err != nil {
		return nil, err
	}
	serverNonce, err := d.Int128()
	if err != nil {
		return nil, err
	}
	g, err := d.Int32()
	if err != nil {
		return nil, err
	}
	dhPrimeBytes, err := d.Bytes()
	if err != nil {
		return nil, err
	}
	gaBytes, err := d.Bytes()
	if err != nil {
		return nil, err
	}
	serverTime, err := d.Int32()
	if err != nil {
		return nil, err
	}

	consumed := d.Pos()
	gotHash := mtcrypto.SHA1(body[:consumed])
	if subtle.ConstantTimeCompare(gotHash, hash) != 1 {
		return nil, errors.New("handshake: server_DH_inner_data hash mismatch")
	}

	return &serverDHInnerData{
		Nonce:       nonce,
		ServerNonce: serverNonce,
		G:           int64(g),
		DHPrime:     new(big.Int).SetBytes(dhPrimeBytes),
		GA:          new(big.Int).SetBytes(gaBytes),
		ServerTime:  serverTime,
	}, nil
}

// encryptClientDHInnerData builds and IGE-encrypts client_DH_inner_data.
func encryptClientDHInnerData(key, iv, nonce, serverNonce []byte, retryID int64, gB *big.Int) []byte {
	e := tl.NewEncoder(256)
	e.ID(idClientDHInnerData)
	e.Int128(nonce)
	e.Int128(serverNonce)
	e.Int64(retryID)
	e.Bytes(gB.Bytes())
	body := e.Finish()

	hash := mtcrypto.SHA1(body)
	plain := append(append([]byte{}, hash...), body...)
	if pad := 16 - len(plain)%16; pad != 16 {
		plain = append(plain, randomBytes(pad)...)
	}
	enc, err := mtcrypto.IGEEncrypt(key, iv, plain)
	if err != nil {
		panic("handshake: IGE encrypt of fixed-size inner data failed: " + err.Error())
	}
	return enc
}

func encodeSetClientDHParams(nonce, serverNonce, encryptedData []byte) []byte {
	e := tl.NewEncoder(len(encryptedData) + 48)
	e.ID(idSetClientDHParams)
	e.Int128(nonce)
	e.Int128(serverNonce)
	e.Bytes(encryptedData)
	return e.Finish()
}

type dhGenResult struct {
	Outcome            Event // EventDHGenOk/Retry/Fail
	Nonce, ServerNonce []byte
	Hash               []byte
}

func decodeDHGenResult(body []byte) (*dhGenResult, error) {
	d := tl.NewDecoder(body)
	id, err := d.PeekID()
	if err != nil {
		return nil, err
	}
	var outcome Event
	switch id {
	case idDHGenOk:
		outcome = EventDHGenOk
	case idDHGenRetry:
		outcome = EventDHGenRetry
	case idDHGenFail:
		outcome = EventDHGenFail
	default:
		return nil, ErrMalformedResponse
	}
	if _, err := d.UInt32(); err != nil {
		return nil, err
	}
	nonce, err := d.Int128()
	if err != nil {
		return nil, err
	}
	serverNonce, err := d.Int128()
	if err != nil {
		return nil, err
	}
	hash, err := d.Int128()
	if err != nil {
		return nil, err
	}
	return &dhGenResult{Outcome: outcome, Nonce: nonce, ServerNonce: serverNonce, Hash: hash}, nil
}
