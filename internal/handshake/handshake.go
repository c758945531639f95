package handshake

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
	"github.com/dantte-lp/gomtproto/internal/transport"
)

// ErrNonceMismatch is returned when a response's echoed nonce does not
// match what the client sent.
var ErrNonceMismatch = errors.New("handshake: nonce mismatch")

// ErrNoMatchingKey is returned when none of the server's RSA fingerprints
// match a key this client knows.
var ErrNoMatchingKey = errors.New("handshake: no matching RSA key")

// ErrDHGenFailed is returned when the server rejects the client's g_b
// (dh_gen_fail) or the client's own verification of dh_gen_ok fails.
var ErrDHGenFailed = errors.New("handshake: server rejected DH parameters")

// Result is the outcome of a successful handshake.
type Result struct {
	AuthKey    [256]byte
	TimeOffset int32
}

const maxDHRetries = 3

// Run drives the full authorization handshake over conn, using keys as
// the set of known RSA public keys to select from by fingerprint.
func Run(conn *transport.Conn, keys []mtcrypto.RSAPublicKey, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "handshake"))

	state := AwaitingPq
	clientNonce := newNonce128()

	if err := conn.WriteFrame(encodeReqPQMulti(clientNonce)); err != nil {
		return Result{}, fmt.Errorf("handshake: send req_pq_multi: %w", err)
	}
	frame, err := conn.ReadFrame()
	if err != nil {
		return Result{}, fmt.Errorf("handshake: read resPQ: %w", err)
	}
	pq, err := decodeResPQ(frame)
	if err != nil {
		return Result{}, fmt.Errorf("handshake: decode resPQ: %w", err)
	}
	if !bytes.Equal(pq.Nonce, clientNonce) {
		return Result{}, ErrNonceMismatch
	}
	if res := ApplyEvent(state, EventResPQ); !res.Changed {
		return Result{}, fmt.Errorf("handshake: unexpected resPQ in state %s", state)
	} else {
		state = res.NewState
	}
	logger.Debug("received resPQ", slog.Int("fingerprints", len(pq.Fingerprints)))

	key, ok := mtcrypto.FindKey(keys, pq.Fingerprints)
	if !ok {
		return Result{}, ErrNoMatchingKey
	}

	pqVal := beBytesToUint64(pq.PQ)
	pVal, qVal := mtcrypto.Factorize(pqVal)
	pBytes := uint64ToMinimalBE(pVal)
	qBytes := uint64ToMinimalBE(qVal)

	newNonce := newNonce256()
	inner := encodePQInnerData(pq.PQ, pBytes, qBytes, clientNonce, pq.ServerNonce, newNonce)
	encrypted, err := mtcrypto.RSAEncryptHashed(key, inner)
	if err != nil {
		return Result{}, fmt.Errorf("handshake: RSA encrypt: %w", err)
	}

	dhReq := encodeReqDHParams(clientNonce, pq.ServerNonce, pBytes, qBytes, key.Fingerprint, encrypted)
	var serverTime int32
	var localUnixAtSend int64
	var authKey [256]byte
	var retryID int64

	for attempt := 0; attempt < maxDHRetries; attempt++ {
		localUnixAtSend = time.Now().Unix()
		if err := conn.WriteFrame(dhReq); err != nil {
			return Result{}, fmt.Errorf("handshake: send req_DH_params: %w", err)
		}
		frame, err := conn.ReadFrame()
		if err != nil {
			return Result{}, fmt.Errorf("handshake: read server_DH_params: %w", err)
		}
		dhParams, err := decodeServerDHParams(frame)
		if err != nil {
			return Result{}, fmt.Errorf("handshake: decode server_DH_params: %w", err)
		}
		if !bytes.Equal(dhParams.Nonce, clientNonce) || !bytes.Equal(dhParams.ServerNonce, pq.ServerNonce) {
			return Result{}, ErrNonceMismatch
		}
		if dhParams.Fail {
			event := EventServerDHParamsFail
			ApplyEvent(state, event)
			return Result{}, fmt.Errorf("%w: server_DH_params_fail", ErrDHGenFailed)
		}
		if res := ApplyEvent(state, EventServerDHParamsOk); res.Changed {
			state = res.NewState
		}

		tmpKey, tmpIV := tmpAESKeyIV(newNonce, pq.ServerNonce)
		inner, err := decryptServerDHInnerData(tmpKey, tmpIV, dhParams.EncryptedData)
		if err != nil {
			return Result{}, fmt.Errorf("handshake: decrypt server_DH_inner_data: %w", err)
		}
		if err := VerifyDHParams(inner.G, inner.DHPrime); err != nil {
			return Result{}, err
		}
		serverTime = inner.ServerTime

		b, err := randBigInt(2048)
		if err != nil {
			return Result{}, err
		}
		gB := new(big.Int).Exp(big.NewInt(inner.G), b, inner.DHPrime)

		clientInner := encryptClientDHInnerData(tmpKey, tmpIV, clientNonce, pq.ServerNonce, retryID, gB)
		if err := conn.WriteFrame(encodeSetClientDHParams(clientNonce, pq.ServerNonce, clientInner)); err != nil {
			return Result{}, fmt.Errorf("handshake: send set_client_DH_params: %w", err)
		}
		frame, err = conn.ReadFrame()
		if err != nil {
			return Result{}, fmt.Errorf("handshake: read dh_gen result: %w", err)
		}
		result, err := decodeDHGenResult(frame)
		if err != nil {
			return Result{}, fmt.Errorf("handshake: decode dh_gen result: %w", err)
		}
		if !bytes.Equal(result.Nonce, clientNonce) || !bytes.Equal(result.ServerNonce, pq.ServerNonce) {
			return Result{}, ErrNonceMismatch
		}

		gA := new(big.Int).Exp(inner.GA, b, inner.DHPrime)
		leftPadInto(authKey[:], gA.Bytes())
		auxHash := authKeyAuxHash(authKey[:])

		res := ApplyEvent(state, result.Outcome)
		switch result.Outcome {
		case EventDHGenOk:
			want := dhGenHash(newNonce, 1, auxHash)
			if subtle.ConstantTimeCompare(want, result.Hash) != 1 {
				return Result{}, ErrDHGenFailed
			}
			if res.Changed {
				state = res.NewState
			}
			offset := int32(int64(serverTime) - localUnixAtSend)
			logger.Info("handshake complete", slog.Int("time_offset", int(offset)))
			return Result{AuthKey: authKey, TimeOffset: offset}, nil
		case EventDHGenRetry:
			want := dhGenHash(newNonce, 2, auxHash)
			if subtle.ConstantTimeCompare(want, result.Hash) != 1 {
				return Result{}, ErrDHGenFailed
			}
			retryID = beBytesToInt64(authKey[:8])
			if res.Changed {
				state = res.NewState
			}
			continue
		case EventDHGenFail:
			want := dhGenHash(newNonce, 3, auxHash)
			if subtle.ConstantTimeCompare(want, result.Hash) == 1 {
				return Result{}, fmt.Errorf("%w: dh_gen_fail", ErrDHGenFailed)
			}
			return Result{}, ErrDHGenFailed
		default:
			return Result{}, ErrMalformedResponse
		}
	}
	return Result{}, fmt.Errorf("handshake: exceeded %d DH retries", maxDHRetries)
}
