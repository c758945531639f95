package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
)

// mtAuthKeyID computes the low 64 bits of SHA1(authKey), the key id every
// encrypted MTProto packet is prefixed with.
func mtAuthKeyID(authKey [256]byte) uint64 {
	sum := mtcrypto.SHA1(authKey[:])
	return uint64(sum[12])<<56 | uint64(sum[13])<<48 | uint64(sum[14])<<40 | uint64(sum[15])<<32 |
		uint64(sum[16])<<24 | uint64(sum[17])<<16 | uint64(sum[18])<<8 | uint64(sum[19])
}

func handshakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "handshake",
		Short: "Run the authorization-key handshake against a datacenter and print the resulting key id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, result, err := dialAndHandshake(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			keyID := mtAuthKeyID(result.AuthKey)
			fmt.Printf("dc %d: auth key established\n", dcID)
			fmt.Printf("  key_id:      %016x\n", keyID)
			fmt.Printf("  time_offset: %d\n", result.TimeOffset)
			return nil
		},
	}
}
