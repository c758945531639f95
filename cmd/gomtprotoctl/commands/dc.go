package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/gomtproto/internal/dcaddr"
)

func dcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dc",
		Short: "List the known datacenter entry points",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			table := dcaddr.NewTable()
			if testDC {
				table = dcaddr.NewTable(dcaddr.TestOptions)
			}

			for id := int32(1); id <= 5; id++ {
				opt, ok := table.Best(id)
				if !ok {
					continue
				}
				fmt.Printf("dc %d: %s\n", id, opt.Addr())
			}
			return nil
		},
	}
}
