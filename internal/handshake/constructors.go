package handshake

// Constructor ids for MTProto's bootstrapping layer, taken from the
// protocol's public documentation (they predate and are independent of
// any application schema).
const (
	idReqPQMulti    uint32 = 0xBE7E8EF1
	idResPQ         uint32 = 0x05162463
	idPQInnerData   uint32 = 0x83C95AEC
	idReqDHParams   uint32 = 0xD712E4BE

	idServerDHParamsFail uint32 = 0x79CB045D
	idServerDHParamsOk   uint32 = 0xD0E8075C
	idServerDHInnerData  uint32 = 0xB5890DBA

	idClientDHInnerData  uint32 = 0x6643B654
	idSetClientDHParams  uint32 = 0xF5045F1F

	idDHGenOk    uint32 = 0x3BCBF734
	idDHGenRetry uint32 = 0x46DC1FB9
	idDHGenFail  uint32 = 0xA69DAE02
)
