// Package dcaddr holds the static table of Telegram datacenter addresses a
// client needs before it has ever talked to a server, plus the in-memory
// representation of config entries learned later via help.getConfig-style
// RPCs (decoded upstream of this package; dcaddr just stores the result).
package dcaddr
