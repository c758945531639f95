package pool

import "github.com/dantte-lp/gomtproto/internal/tl"

// CurrentLayer is the MTProto application-schema layer this client
// declares on first use of each connection.
const CurrentLayer = 181

// System-level constructor ids for the two wrapper objects every first
// call on a connection is nested inside. These are fixed, well-known
// shapes (not part of any generated schema), so the pool encodes them
// directly with the tl primitives rather than requiring a schema registry.
const (
	idInvokeWithLayer uint32 = 0xDA9B0D0D
	idInitConnection  uint32 = 0xC1CD5EA9
)

// ConnParams carries the identifying strings reported to Telegram in
// initConnection, plus the locale defaults applications rarely need to
// override.
type ConnParams struct {
	APIID           int32
	DeviceModel     string
	SystemVersion   string
	AppVersion      string
	SystemLangCode  string
	LangCode        string
}

// withDefaults fills SystemLangCode/LangCode with "en" when unset.
func (p ConnParams) withDefaults() ConnParams {
	if p.SystemLangCode == "" {
		p.SystemLangCode = "en"
	}
	if p.LangCode == "" {
		p.LangCode = "en"
	}
	return p
}

// wrapFirstCall wraps query in initConnection{...} and invokeWithLayer,
// the shape every MTProto client sends exactly once per fresh connection
// before anything else.
func wrapFirstCall(p ConnParams, query []byte) []byte {
	p = p.withDefaults()

	inner := tl.NewEncoder(64 + len(query))
	inner.ID(idInitConnection)
	inner.Int32(0) // flags: no proxy, no params
	inner.Int32(p.APIID)
	inner.String(p.DeviceModel)
	inner.String(p.SystemVersion)
	inner.String(p.AppVersion)
	inner.String(p.SystemLangCode)
	inner.String("") // lang_pack: unused outside the official clients
	inner.String(p.LangCode)
	inner.Raw(query)

	outer := tl.NewEncoder(8 + inner.Len())
	outer.ID(idInvokeWithLayer)
	outer.Int32(CurrentLayer)
	outer.Raw(inner.Finish())
	return outer.Finish()
}
