package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pledgeforprogress/pledged/pkg/client"
	"github.com/pledgeforprogress/pledged/pkg/model"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	URL     string
	Caller  string
	Token   string
	Format  string
	Timeout time.Duration
	Verbose bool
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "pledgectl",
		Short:         "Command line client for the pledged campaign API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return errors.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			if opts.Verbose {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.URL, "url", "http://localhost:8080", "pledged server URL")
	cmd.PersistentFlags().StringVar(&opts.Caller, "caller", "", "caller address sent in the X-Caller header")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "bearer token identifying the caller")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newPledgeCommand(opts))
	cmd.AddCommand(newClaimCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newPledgeAmountCommand(opts))
	cmd.AddCommand(newPledgesCommand(opts))
	cmd.AddCommand(newEventsCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func (o *RootOptions) client() (*client.Client, error) {
	var opts []client.Option

	if o.Token != "" {
		opts = append(opts, client.WithToken(o.Token))
	} else if o.Caller != "" {
		caller, err := model.ParseAddress(o.Caller)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithCaller(caller))
	}

	log.Debugf("using server %s", o.URL)
	return client.New(o.URL, opts...), nil
}

// print writes v as indented JSON or calls text for the human readable form
func (o *RootOptions) print(w io.Writer, v interface{}, text func(w io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	text(w)
	return nil
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
