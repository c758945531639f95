// Package updates implements MTProto's update state box: the per-account
// and per-channel pts/qts/seq/date counters that let a client detect and
// recover from gaps in the stream of updates a sender forwards to it.
package updates
