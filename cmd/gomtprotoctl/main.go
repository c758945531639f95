// gomtprotoctl is a low-level probe for the transport, handshake, and
// sender layers, useful for exercising a datacenter connection without
// any application schema.
package main

import "github.com/dantte-lp/gomtproto/cmd/gomtprotoctl/commands"

func main() {
	commands.Execute()
}
