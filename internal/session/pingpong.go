package session

import "github.com/dantte-lp/gomtproto/internal/tl"

// EncodePing builds a ping{ping_id} body, one of MTProto's own system
// messages (not part of any application schema).
func EncodePing(pingID int64) []byte {
	e := tl.NewEncoder(12)
	e.ID(idPing)
	e.Int64(pingID)
	return e.Finish()
}

// Pong is a decoded pong{msg_id, ping_id}.
type Pong struct {
	MsgID  int64
	PingID int64
}

// DecodePong parses a Decoded value of KindPong's Raw body.
func DecodePong(raw []byte) (Pong, error) {
	d := tl.NewDecoder(raw)
	if err := d.ExpectID(idPong); err != nil {
		return Pong{}, err
	}
	msgID, err := d.Int64()
	if err != nil {
		return Pong{}, err
	}
	pingID, err := d.Int64()
	if err != nil {
		return Pong{}, err
	}
	return Pong{MsgID: msgID, PingID: pingID}, nil
}
