// Package transport implements MTProto's three wire-framing codecs
// (abridged, intermediate, full) and the optional obfuscation wrapper
// that disguises the connection as opaque TCP traffic. It also dials the
// underlying TCP connection, including through a SOCKS5 proxy.
package transport
