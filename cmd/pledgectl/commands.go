package main

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pledgeforprogress/pledged/pkg/handler"
	"github.com/pledgeforprogress/pledged/pkg/model"
)

func withTimeout(cmd *cobra.Command, opts *RootOptions) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), opts.Timeout)
}

func newPledgeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pledge <amount>",
		Short: "Pledge an amount to the campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(model.ErrInvalidAmount, "can't parse %q", args[0])
			}

			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			res, err := c.Pledge(ctx, amount)
			if err != nil {
				return err
			}

			return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				printf(w, "pledged %d from %s\n", res.Amount, res.Pledger)
			})
		},
	}
}

func newClaimCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "claim",
		Short: "Release escrowed funds to the beneficiary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			res, err := c.ClaimFunds(ctx)
			if err != nil {
				return err
			}

			return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				printf(w, "transferred %d to %s\n", res.Amount, res.Beneficiary)
			})
		},
	}
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the campaign status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			status, err := c.Status(ctx)
			if err != nil {
				return err
			}

			return opts.print(cmd.OutOrStdout(), status, func(w io.Writer) {
				printf(w, "state:         %s\n", status.State)
				printf(w, "total pledged: %d / %d\n", status.TotalPledged, status.Goal)
				printf(w, "goal achieved: %t\n", status.GoalAchieved)
				printf(w, "funds claimed: %t\n", status.FundsClaimed)
				printf(w, "pledgers:      %d\n", status.Pledgers)
				printf(w, "beneficiary:   %s\n", status.Beneficiary)
			})
		},
	}
}

func newPledgeAmountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pledge-amount <address>",
		Short: "Show the cumulative amount pledged by an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := model.ParseAddress(args[0])
			if err != nil {
				return err
			}

			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			amount, err := c.PledgeAmount(ctx, address)
			if err != nil {
				return err
			}

			out := map[string]interface{}{"address": address, "amount": amount}
			return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				printf(w, "%s: %d\n", address, amount)
			})
		},
	}
}

func newPledgesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pledges",
		Short: "List all pledge records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			list, err := c.Pledges(ctx)
			if err != nil {
				return err
			}

			return opts.print(cmd.OutOrStdout(), list, func(w io.Writer) {
				for _, pledge := range list {
					printf(w, "%s\t%d\n", pledge.Pledger, pledge.Amount)
				}
			})
		},
	}
}

func newEventsCommand(opts *RootOptions) *cobra.Command {
	var (
		since uint64
		limit int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List campaign events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			list, err := c.Events(ctx, since, limit)
			if err != nil {
				return err
			}

			return opts.print(cmd.OutOrStdout(), list, func(w io.Writer) {
				for _, event := range list {
					printf(w, "%d\t%s\t%s\t%s\t%d\t%d\n",
						event.Seq, event.Time.Format(time.RFC3339), event.Kind, event.Caller, event.Amount, event.TotalPledged)
				}
			})
		},
	}

	cmd.Flags().Uint64Var(&since, "since", 0, "only list events after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", model.DefaultEventsPerPage, "maximum number of events to list")

	return cmd
}

func newTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Issue a bearer token for an address",
		Long: `Issue a bearer token for an address.

The secret must match server.jwt_secret of the pledged instance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := model.ParseAddress(args[0])
			if err != nil {
				return err
			}

			token, err := handler.IssueToken(secret, address, ttl)
			if err != nil {
				return err
			}

			out := map[string]interface{}{"address": address, "token": token}
			return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				printf(w, "%s\n", token)
			})
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "token signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 never expires")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}
