package session

import (
	"bytes"
	"compress/gzip"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
	"github.com/dantte-lp/gomtproto/internal/tl"
)

// Container and padding bounds from MTProto's message layer.
const (
	maxContainerMessages = 100
	maxContainerBytes    = 1044448
	gzipThreshold        = 512
	minPaddingBytes      = 12
	maxPaddingBytes      = 1024
)

// ErrNoMessages is returned by Pack when called with an empty batch.
var ErrNoMessages = errors.New("session: Pack called with no messages")

// Message is one outgoing RPC body queued for transmission.
type Message struct {
	Body           []byte
	ContentRelated bool
}

// packedEntry is one message as it will appear inside a container, or as
// the sole content of a non-containerized packet.
type packedEntry struct {
	msgID          int64
	seqNo          int32
	body           []byte
	contentRelated bool
}

// Pack serializes one or more outgoing messages into a single encrypted
// MTProto packet. More than one message (or any pending ack) is folded
// into a msg_container, bounded by the 100-message / 1,044,448-byte
// limits; anything that doesn't fit is left for the caller to send in a
// later Pack call.
//
// ids holds, for each input message that made it into this packet, the
// msg_id the caller should register as that request's pending-call key;
// a message that didn't fit (and so appears in leftover instead) has a
// corresponding id of 0.
func (s *Session) Pack(msgs []Message) (packet []byte, ids []int64, leftover []Message, err error) {
	if len(msgs) == 0 {
		return nil, nil, nil, ErrNoMessages
	}

	entries := make([]packedEntry, 0, len(msgs)+1)
	for _, m := range msgs {
		entries = append(entries, s.prepareEntry(m.Body, m.ContentRelated))
	}
	if acks := s.drainAcks(); len(acks) > 0 {
		entries = append(entries, s.prepareEntry(encodeMsgsAck(acks), false))
	}

	fitted, leftover := capToContainerLimits(entries)

	ids = make([]int64, len(msgs))
	for i := range msgs {
		if i < len(fitted) {
			ids[i] = fitted[i].msgID
		}
	}

	var body []byte
	var msgID int64
	var seqNo int32
	if len(fitted) == 1 {
		body, msgID, seqNo = fitted[0].body, fitted[0].msgID, fitted[0].seqNo
	} else {
		body = encodeContainer(fitted)
		msgID = s.ids.nextMessageID()
		seqNo = s.ids.nextSeqNo(false)
	}

	packet, err = s.encryptPacket(msgID, seqNo, body)
	if err != nil {
		return nil, nil, nil, err
	}
	return packet, ids, leftover, nil
}

// prepareEntry assigns a message id and sequence number to body, gzip
// wrapping it first if that would make it smaller.
func (s *Session) prepareEntry(body []byte, contentRelated bool) packedEntry {
	wireBody := body
	if contentRelated {
		wireBody = maybeGzip(body)
	}
	return packedEntry{
		msgID:          s.ids.nextMessageID(),
		seqNo:          s.ids.nextSeqNo(contentRelated),
		body:           wireBody,
		contentRelated: contentRelated,
	}
}

// maybeGzip wraps body in a gzip_packed constructor when that yields a
// strictly smaller payload. A client is always free to skip compression,
// so bodies that wouldn't shrink are left alone. Only called for
// content-related bodies; non-content-related messages (acks, pings) are
// never worth the round trip.
func maybeGzip(body []byte) []byte {
	if len(body) <= gzipThreshold {
		return body
	}
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return body
	}
	if _, err := w.Write(body); err != nil {
		return body
	}
	if err := w.Close(); err != nil || buf.Len() >= len(body) {
		return body
	}

	e := tl.NewEncoder(8 + buf.Len())
	e.ID(idGzipPacked)
	e.Bytes(buf.Bytes())
	if e.Len() >= len(body) {
		return body
	}
	return e.Finish()
}

// capToContainerLimits trims entries to the first prefix that fits within
// the container bounds. Anything past the fitted prefix is returned as
// leftover Messages for the caller to resend in a later Pack call; a
// single entry that alone exceeds the limits is still sent on its own.
func capToContainerLimits(entries []packedEntry) ([]packedEntry, []Message) {
	if len(entries) <= 1 {
		return entries, nil
	}

	const envelopeOverhead = 8 // container constructor id + count
	const perEntryOverhead = 8 + 4 + 4

	size := envelopeOverhead
	fit := len(entries)
	for i, en := range entries {
		entrySize := perEntryOverhead + len(en.body)
		if i >= maxContainerMessages || size+entrySize > maxContainerBytes {
			fit = i
			if fit == 0 {
				fit = 1
			}
			break
		}
		size += entrySize
	}
	if fit >= len(entries) {
		return entries, nil
	}

	leftover := make([]Message, 0, len(entries)-fit)
	for _, en := range entries[fit:] {
		leftover = append(leftover, Message{Body: en.body, ContentRelated: en.contentRelated})
	}
	return entries[:fit], leftover
}

// encodeMsgsAck builds a msgs_ack payload acknowledging ids.
func encodeMsgsAck(ids []int64) []byte {
	e := tl.NewEncoder(8 + 8 + 8*len(ids))
	e.ID(idMsgsAck)
	e.BoxedVector(len(ids), func(i int) { e.Int64(ids[i]) })
	return e.Finish()
}

// encodeContainer builds a msg_container payload wrapping entries, each
// carried as msg_id:long, seqno:int, bytes:int, body:bytes (the raw body,
// with no additional length-prefix framing).
func encodeContainer(entries []packedEntry) []byte {
	size := 8
	for _, en := range entries {
		size += 16 + len(en.body)
	}
	e := tl.NewEncoder(size)
	e.ID(idMsgContainer)
	e.Int32(int32(len(entries)))
	for _, en := range entries {
		e.Int64(en.msgID)
		e.Int32(en.seqNo)
		e.Int32(int32(len(en.body)))
		e.Raw(en.body)
	}
	return e.Finish()
}

// encryptPacket assembles the plaintext envelope (salt, session id,
// message id, sequence number, body, padding), derives the message key
// and AES-IGE key/iv per MTProto 2.0 §4.2, and returns the final
// key_id||msg_key||ciphertext frame.
func (s *Session) encryptPacket(msgID int64, seqNo int32, body []byte) ([]byte, error) {
	e := tl.NewEncoder(32 + len(body) + maxPaddingBytes)
	e.Int64(s.CurrentSalt())
	e.Int64(s.SessionID())
	e.Int64(msgID)
	e.Int32(seqNo)
	e.Int32(int32(len(body)))
	e.Raw(body)

	padded, err := addPadding(e.Finish())
	if err != nil {
		return nil, err
	}

	msgKey := mtcrypto.DeriveMessageKeyOuter(s.authKey[:], mtcrypto.ToServer, padded)
	aesKey, aesIV := mtcrypto.DeriveKeyIV(s.authKey[:], msgKey, mtcrypto.ToServer)
	ciphertext, err := mtcrypto.IGEEncrypt(aesKey, aesIV, padded)
	if err != nil {
		return nil, err
	}

	out := tl.NewEncoder(8 + 16 + len(ciphertext))
	out.Int64(s.authKeyID)
	out.Raw(msgKey)
	out.Raw(ciphertext)
	return out.Finish(), nil
}

// addPadding appends 12-1024 random bytes to buf so that the total length
// is a multiple of the AES block size, per MTProto 2.0's v2 padding rule.
func addPadding(buf []byte) ([]byte, error) {
	minimal := (16 - len(buf)%16) % 16
	for minimal < minPaddingBytes {
		minimal += 16
	}

	extraBlocks := (maxPaddingBytes - minimal) / 16
	extra := 0
	if extraBlocks > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(extraBlocks+1)))
		if err != nil {
			return nil, err
		}
		extra = int(n.Int64()) * 16
	}

	pad := make([]byte, minimal+extra)
	if _, err := rand.Read(pad); err != nil {
		return nil, err
	}
	return append(buf, pad...), nil
}
