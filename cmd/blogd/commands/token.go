package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/keypager"
)

func newTokenCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Args:  cobra.NoArgs,
		Short: "Continuation token tools",
	}

	cmd.AddCommand(newTokenInspectCommand(opts))

	return cmd
}

// The token must have been issued with the configured token.key and token.iv.
func newTokenInspectCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Args:  cobra.ExactArgs(1),
		Short: "Decrypt a continuation token and print its payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			codec, err := keypager.NewTokenCodec(cfg.Token)
			if err != nil {
				return err
			}

			payload, err := codec.Open(args[0])
			if err != nil {
				return fmt.Errorf("cannot inspect token: %w", err)
			}

			var out bytes.Buffer
			if err = json.Indent(&out, payload, "", "  "); err != nil {
				return fmt.Errorf("cannot inspect token: %w: %w", keypager.ErrDecode, err)
			}
			out.WriteByte('\n')

			_, err = cmd.OutOrStdout().Write(out.Bytes())

			return err
		},
	}
}
