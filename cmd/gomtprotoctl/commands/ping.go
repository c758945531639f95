package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/gomtproto/internal/sender"
	"github.com/dantte-lp/gomtproto/internal/session"
)

func pingCmd() *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Hold a connection open and exercise the sender's ping/pong keepalive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, result, err := dialAndHandshake(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			sess := session.New(result.AuthKey, result.TimeOffset)
			snd := sender.New(dcID, conn, sess, nil, newLogger())

			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			fmt.Printf("dc %d: holding connection open for %s, watching for pongs\n", dcID, duration)
			if err := snd.Run(ctx); err != nil {
				return fmt.Errorf("connection dropped: %w", err)
			}
			fmt.Println("connection stayed healthy for the whole window")
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 20*time.Second, "how long to hold the connection open")
	return cmd
}
