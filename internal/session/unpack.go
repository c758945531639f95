package session

import (
	"crypto/subtle"
	"errors"

	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
	"github.com/dantte-lp/gomtproto/internal/tl"
)

var (
	// ErrShortPacket is returned when a packet is too small to contain a
	// key id and message key.
	ErrShortPacket = errors.New("session: packet shorter than the minimum frame")
	// ErrUnknownAuthKey is returned when a packet's key id does not match
	// this session's auth key.
	ErrUnknownAuthKey = errors.New("session: packet addressed to a different auth key")
	// ErrMsgKeyMismatch is returned when the recomputed msg_key does not
	// match the one carried on the wire, indicating tampering or a key
	// derivation bug.
	ErrMsgKeyMismatch = errors.New("session: recomputed msg_key does not match")
	// ErrForeignSession is returned when a decrypted envelope names a
	// session id other than this Session's own.
	ErrForeignSession = errors.New("session: packet belongs to a different session id")
	// ErrImplausibleMsgID is returned when a decrypted envelope's msg_id is
	// zero, which no real client or server ever generates.
	ErrImplausibleMsgID = errors.New("session: msg_id is implausible")
	// ErrMsgIDNotMonotonic is returned when a decrypted envelope's msg_id is
	// lower than one already seen from the server this session.
	ErrMsgIDNotMonotonic = errors.New("session: msg_id is lower than a previously seen id")
)

// Kind classifies a decoded system message so a caller can route it
// without re-parsing its body.
type Kind int

const (
	// KindUpdate covers every constructor outside MTProto's own message
	// layer: everything not recognized by isSystemConstructor is forwarded
	// here, raw, for the updates package to interpret.
	KindUpdate Kind = iota
	KindRPCResult
	KindRPCError
	KindBadServerSalt
	KindBadMsgNotification
	KindNewSessionCreated
	KindPong
	KindMsgsAck
	KindMsgDetailedInfo
	KindFutureSalts
)

// BadServerSalt carries a bad_server_salt notification's fields.
type BadServerSalt struct {
	BadMsgID    int64
	BadMsgSeqNo int32
	ErrorCode   int32
	NewSalt     int64
}

// BadMsgNotification carries a bad_msg_notification's fields. ErrorCode
// 16/17 indicate clock skew (the caller should adopt a new time offset),
// 32/33 indicate a sequence number desync (the caller should reset its
// seqno counter), 48 indicates an invalid server salt.
type BadMsgNotification struct {
	BadMsgID    int64
	BadMsgSeqNo int32
	ErrorCode   int32
}

// RPCError carries an RPC-level error returned inside an rpc_result.
type RPCError struct {
	Code    int32
	Message string
}

// Decoded is one system message extracted from an incoming packet,
// possibly one of several pulled out of a msg_container.
type Decoded struct {
	Kind  Kind
	MsgID int64
	SeqNo int32

	// ReqMsgID is the originating request's message id, for
	// KindRPCResult.
	ReqMsgID int64
	// Result is the inner TL payload of an rpc_result, already unwrapped
	// from gzip_packed if the server compressed it. Nil when RPCErr is
	// set instead.
	Result []byte
	RPCErr *RPCError

	BadServerSalt      BadServerSalt
	BadMsgNotification BadMsgNotification

	// FirstSalt is the new current salt, for KindNewSessionCreated and
	// KindFutureSalts (the first entry of the returned vector).
	FirstSalt int64
	// FirstMsgID is new_session_created's first_msg_id: pending calls
	// below this id will never be answered under their old ids; the
	// sender re-enqueues them for retransmission.
	FirstMsgID int64

	// Acks is the set of message ids being acknowledged, for KindMsgsAck.
	Acks []int64

	// Raw is the verbatim constructor-prefixed body, for KindUpdate and
	// anything a caller wants to re-decode itself.
	Raw []byte
}

// Unpack decrypts an incoming packet and returns every system message it
// carries, recursing into a msg_container. A container nested inside
// another is decoded the same way rather than rejected.
func (s *Session) Unpack(packet []byte) ([]Decoded, error) {
	if len(packet) < 24 {
		return nil, ErrShortPacket
	}

	d := tl.NewDecoder(packet)
	keyID, err := d.Int64()
	if err != nil {
		return nil, err
	}
	if keyID != s.authKeyID {
		return nil, ErrUnknownAuthKey
	}
	msgKey, err := d.Int128()
	if err != nil {
		return nil, err
	}
	ciphertext := d.Rest()

	aesKey, aesIV := mtcrypto.DeriveKeyIV(s.authKey[:], msgKey, mtcrypto.ToClient)
	plain, err := mtcrypto.IGEDecrypt(aesKey, aesIV, ciphertext)
	if err != nil {
		return nil, err
	}

	wantKey := mtcrypto.DeriveMessageKeyOuter(s.authKey[:], mtcrypto.ToClient, plain)
	if subtle.ConstantTimeCompare(wantKey, msgKey) != 1 {
		return nil, ErrMsgKeyMismatch
	}

	pd := tl.NewDecoder(plain)
	if _, err := pd.Int64(); err != nil { // server_salt, not validated here
		return nil, err
	}
	sessionID, err := pd.Int64()
	if err != nil {
		return nil, err
	}
	if sessionID != s.sessionID {
		return nil, ErrForeignSession
	}
	msgID, err := pd.Int64()
	if err != nil {
		return nil, err
	}
	if err := s.checkServerMsgID(msgID); err != nil {
		return nil, err
	}
	seqNo, err := pd.Int32()
	if err != nil {
		return nil, err
	}
	bodyLen, err := pd.Int32()
	if err != nil {
		return nil, err
	}
	body, err := pd.TakeRaw(int(bodyLen))
	if err != nil {
		return nil, err
	}

	return decodeMessage(msgID, seqNo, body)
}

// decodeMessage classifies one message body by its leading constructor
// id, unwrapping gzip_packed and recursing one level into msg_container.
func decodeMessage(msgID int64, seqNo int32, body []byte) ([]Decoded, error) {
	d := tl.NewDecoder(body)
	ctorID, err := d.PeekID()
	if err != nil {
		return nil, err
	}

	switch ctorID {
	case idGzipPacked:
		if err := d.ExpectID(idGzipPacked); err != nil {
			return nil, err
		}
		packed, err := d.Bytes()
		if err != nil {
			return nil, err
		}
		inner, err := gunzip(packed)
		if err != nil {
			return nil, err
		}
		return decodeMessage(msgID, seqNo, inner)

	case idMsgContainer:
		return decodeContainer(body)

	case idRPCResult:
		return decodeRPCResult(msgID, seqNo, d)

	case idBadServerSalt:
		return decodeBadServerSalt(msgID, seqNo, d)

	case idBadMsgNotification:
		return decodeBadMsgNotification(msgID, seqNo, d)

	case idNewSessionCreated:
		return decodeNewSessionCreated(msgID, seqNo, body, d)

	case idPong:
		return []Decoded{{Kind: KindPong, MsgID: msgID, SeqNo: seqNo, Raw: body}}, nil

	case idMsgsAck:
		return decodeMsgsAck(msgID, seqNo, d)

	case idMsgDetailedInfo, idMsgNewDetailedInfo:
		return []Decoded{{Kind: KindMsgDetailedInfo, MsgID: msgID, SeqNo: seqNo, Raw: body}}, nil

	case idFutureSalts:
		return decodeFutureSalts(msgID, seqNo, d)

	default:
		return []Decoded{{Kind: KindUpdate, MsgID: msgID, SeqNo: seqNo, Raw: body}}, nil
	}
}

func decodeContainer(body []byte) ([]Decoded, error) {
	d := tl.NewDecoder(body)
	if err := d.ExpectID(idMsgContainer); err != nil {
		return nil, err
	}
	count, err := d.Int32()
	if err != nil {
		return nil, err
	}

	var out []Decoded
	for i := int32(0); i < count; i++ {
		innerMsgID, err := d.Int64()
		if err != nil {
			return nil, err
		}
		innerSeqNo, err := d.Int32()
		if err != nil {
			return nil, err
		}
		innerLen, err := d.Int32()
		if err != nil {
			return nil, err
		}
		innerBody, err := d.TakeRaw(int(innerLen))
		if err != nil {
			return nil, err
		}
		decoded, err := decodeMessage(innerMsgID, innerSeqNo, innerBody)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

func decodeRPCResult(msgID int64, seqNo int32, d *tl.Decoder) ([]Decoded, error) {
	if err := d.ExpectID(idRPCResult); err != nil {
		return nil, err
	}
	reqMsgID, err := d.Int64()
	if err != nil {
		return nil, err
	}

	innerID, err := d.PeekID()
	if err != nil {
		return nil, err
	}

	if innerID == idRPCError {
		if err := d.ExpectID(idRPCError); err != nil {
			return nil, err
		}
		code, err := d.Int32()
		if err != nil {
			return nil, err
		}
		msg, err := d.String()
		if err != nil {
			return nil, err
		}
		return []Decoded{{
			Kind:     KindRPCError,
			MsgID:    msgID,
			SeqNo:    seqNo,
			ReqMsgID: reqMsgID,
			RPCErr:   &RPCError{Code: code, Message: msg},
		}}, nil
	}

	result := d.Rest()
	if innerID == idGzipPacked {
		gd := tl.NewDecoder(result)
		if err := gd.ExpectID(idGzipPacked); err != nil {
			return nil, err
		}
		packed, err := gd.Bytes()
		if err != nil {
			return nil, err
		}
		unzipped, err := gunzip(packed)
		if err != nil {
			return nil, err
		}
		result = unzipped
	}

	return []Decoded{{
		Kind:     KindRPCResult,
		MsgID:    msgID,
		SeqNo:    seqNo,
		ReqMsgID: reqMsgID,
		Result:   result,
	}}, nil
}

func decodeBadServerSalt(msgID int64, seqNo int32, d *tl.Decoder) ([]Decoded, error) {
	if err := d.ExpectID(idBadServerSalt); err != nil {
		return nil, err
	}
	badMsgID, err := d.Int64()
	if err != nil {
		return nil, err
	}
	badSeqNo, err := d.Int32()
	if err != nil {
		return nil, err
	}
	errorCode, err := d.Int32()
	if err != nil {
		return nil, err
	}
	newSalt, err := d.Int64()
	if err != nil {
		return nil, err
	}
	return []Decoded{{
		Kind:  KindBadServerSalt,
		MsgID: msgID,
		SeqNo: seqNo,
		BadServerSalt: BadServerSalt{
			BadMsgID:    badMsgID,
			BadMsgSeqNo: badSeqNo,
			ErrorCode:   errorCode,
			NewSalt:     newSalt,
		},
	}}, nil
}

func decodeBadMsgNotification(msgID int64, seqNo int32, d *tl.Decoder) ([]Decoded, error) {
	if err := d.ExpectID(idBadMsgNotification); err != nil {
		return nil, err
	}
	badMsgID, err := d.Int64()
	if err != nil {
		return nil, err
	}
	badSeqNo, err := d.Int32()
	if err != nil {
		return nil, err
	}
	errorCode, err := d.Int32()
	if err != nil {
		return nil, err
	}
	return []Decoded{{
		Kind:  KindBadMsgNotification,
		MsgID: msgID,
		SeqNo: seqNo,
		BadMsgNotification: BadMsgNotification{
			BadMsgID:    badMsgID,
			BadMsgSeqNo: badSeqNo,
			ErrorCode:   errorCode,
		},
	}}, nil
}

func decodeNewSessionCreated(msgID int64, seqNo int32, body []byte, d *tl.Decoder) ([]Decoded, error) {
	if err := d.ExpectID(idNewSessionCreated); err != nil {
		return nil, err
	}
	firstMsgID, err := d.Int64()
	if err != nil {
		return nil, err
	}
	if _, err := d.Int64(); err != nil { // unique_id
		return nil, err
	}
	salt, err := d.Int64()
	if err != nil {
		return nil, err
	}
	return []Decoded{{
		Kind: KindNewSessionCreated, MsgID: msgID, SeqNo: seqNo,
		FirstSalt: salt, FirstMsgID: firstMsgID, Raw: body,
	}}, nil
}

func decodeMsgsAck(msgID int64, seqNo int32, d *tl.Decoder) ([]Decoded, error) {
	if err := d.ExpectID(idMsgsAck); err != nil {
		return nil, err
	}
	var acks []int64
	_, err := d.Vector(func(i int) error {
		id, err := d.Int64()
		if err != nil {
			return err
		}
		acks = append(acks, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []Decoded{{Kind: KindMsgsAck, MsgID: msgID, SeqNo: seqNo, Acks: acks}}, nil
}

func decodeFutureSalts(msgID int64, seqNo int32, d *tl.Decoder) ([]Decoded, error) {
	if err := d.ExpectID(idFutureSalts); err != nil {
		return nil, err
	}
	if _, err := d.Int64(); err != nil { // req_msg_id
		return nil, err
	}
	if _, err := d.Int32(); err != nil { // now
		return nil, err
	}
	count, err := d.Int32()
	if err != nil {
		return nil, err
	}
	var first int64
	for i := int32(0); i < count; i++ {
		if err := d.ExpectID(idFutureSalt); err != nil {
			return nil, err
		}
		if _, err := d.Int32(); err != nil { // valid_since
			return nil, err
		}
		if _, err := d.Int32(); err != nil { // valid_until
			return nil, err
		}
		salt, err := d.Int64()
		if err != nil {
			return nil, err
		}
		if i == 0 {
			first = salt
		}
	}
	return []Decoded{{Kind: KindFutureSalts, MsgID: msgID, SeqNo: seqNo, FirstSalt: first}}, nil
}
