package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/gomtproto/internal/sender"
	"github.com/dantte-lp/gomtproto/internal/session"
)

func invokeCmd() *cobra.Command {
	var hexBody string
	var timeout time.Duration
	var contentRelated bool

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Send a raw, already-TL-encoded query and print the raw result bytes",
		Long: "invoke sends exactly the bytes given by --body (hex-encoded) as one MTProto " +
			"message body. It knows nothing about the application schema; building that body " +
			"is the caller's job.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := hex.DecodeString(hexBody)
			if err != nil {
				return fmt.Errorf("decode --body: %w", err)
			}

			conn, result, err := dialAndHandshake(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			sess := session.New(result.AuthKey, result.TimeOffset)
			snd := sender.New(dcID, conn, sess, nil, newLogger())

			runCtx, cancel := context.WithTimeout(cmd.Context(), timeout+2*time.Second)
			defer cancel()
			go func() { _ = snd.Run(runCtx) }()

			invokeCtx, cancelInvoke := context.WithTimeout(cmd.Context(), timeout)
			defer cancelInvoke()

			res, err := snd.Invoke(invokeCtx, body, contentRelated)
			if err != nil {
				return fmt.Errorf("invoke: %w", err)
			}

			fmt.Println(hex.EncodeToString(res.Body))
			return nil
		},
	}

	cmd.Flags().StringVar(&hexBody, "body", "", "hex-encoded TL query body (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for a result")
	cmd.Flags().BoolVar(&contentRelated, "content-related", true, "whether the query counts toward the sequence number")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}
