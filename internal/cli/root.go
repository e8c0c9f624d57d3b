// Package cli implements shortenctl, a command-line client for the gRPC
// link service.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	linkgrpc "github.com/atinyakov/amethyst/internal/app/server/grpc"
)

type rootOptions struct {
	addr    string
	timeout time.Duration
}

// NewRootCmd builds the shortenctl command tree. dialOpts are appended to
// the client connection options.
func NewRootCmd(dialOpts ...grpc.DialOption) *cobra.Command {
	ro := &rootOptions{}

	root := &cobra.Command{
		Use:           "shortenctl",
		Short:         "Create and resolve short links over gRPC",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&ro.addr, "addr", "localhost:3200", "gRPC server address")
	root.PersistentFlags().DurationVar(&ro.timeout, "timeout", 5*time.Second, "per-call timeout")

	root.AddCommand(newCreateCmd(ro, dialOpts), newResolveCmd(ro, dialOpts))

	return root
}

// withClient dials the server and runs fn under the configured timeout.
func (ro *rootOptions) withClient(ctx context.Context, dialOpts []grpc.DialOption, fn func(context.Context, *linkgrpc.Client) error) error {
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, dialOpts...)

	conn, err := grpc.NewClient(ro.addr, opts...)
	if err != nil {
		return fmt.Errorf("connect %s: %w", ro.addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, ro.timeout)
	defer cancel()

	return fn(ctx, linkgrpc.NewClient(conn))
}

func newCreateCmd(ro *rootOptions, dialOpts []grpc.DialOption) *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "create <url>",
		Short: "Shorten a URL and print the short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.withClient(cmd.Context(), dialOpts, func(ctx context.Context, c *linkgrpc.Client) error {
				short, err := c.Create(ctx, args[0], slug)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), short)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "desired slug")

	return cmd
}

func newResolveCmd(ro *rootOptions, dialOpts []grpc.DialOption) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <slug>",
		Short: "Print the destination stored under a slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ro.withClient(cmd.Context(), dialOpts, func(ctx context.Context, c *linkgrpc.Client) error {
				dest, err := c.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), dest)
				return err
			})
		},
	}
}
