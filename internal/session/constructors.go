package session

// Constructor ids for MTProto's system message layer. These are fixed by
// the protocol itself, independent of any application schema.
const (
	idMsgContainer       uint32 = 0x73F1F8DC
	idRPCResult          uint32 = 0xF35C6D01
	idRPCError           uint32 = 0x2144CA19
	idGzipPacked         uint32 = 0x3072CFA1
	idBadServerSalt      uint32 = 0xEDAB447B
	idBadMsgNotification uint32 = 0xA7EFF811
	idNewSessionCreated  uint32 = 0x9EC20908
	idPong               uint32 = 0x347773C5
	idMsgsAck            uint32 = 0x62D6B459
	idMsgDetailedInfo    uint32 = 0x276D3EC6
	idMsgNewDetailedInfo uint32 = 0x809DB6DF
	idFutureSalts        uint32 = 0xAE500895
	idFutureSalt         uint32 = 0x0949D9DC
	idPing               uint32 = 0x7ABE77EC
)

// isSystemConstructor reports whether id belongs to MTProto's own message
// layer rather than an application-schema update; everything else falls
// through to the update state box (see internal/updates).
func isSystemConstructor(id uint32) bool {
	switch id {
	case idMsgContainer, idRPCResult, idRPCError, idGzipPacked,
		idBadServerSalt, idBadMsgNotification, idNewSessionCreated,
		idPong, idMsgsAck, idMsgDetailedInfo, idMsgNewDetailedInfo,
		idFutureSalts, idFutureSalt, idPing:
		return true
	default:
		return false
	}
}
