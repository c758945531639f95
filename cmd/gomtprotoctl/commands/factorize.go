package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/gomtproto/internal/mtcrypto"
)

func factorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "factorize <pq>",
		Short: "Factor a 64-bit pq value the way the handshake's pq_inner_data step does",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			pq, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse pq: %w", err)
			}

			p, q := mtcrypto.Factorize(pq)
			fmt.Printf("pq = %d\n", pq)
			fmt.Printf("p  = %d\n", p)
			fmt.Printf("q  = %d\n", q)
			return nil
		},
	}
}
