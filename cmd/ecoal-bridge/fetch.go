package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/ecoalbridge"
	"github.com/adamwoolhether/ecoalbridge/client"
)

func newFetchCmd() *cobra.Command {
	var (
		asXML    bool
		username string
		password string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Perform one legacy GET and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ecoalbridge.FetchLegacy(cmd.Context(), args[0],
				client.WithBasicAuth(username, password),
				client.WithFetchTimeout(timeout),
			)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.HeadersRaw)
			fmt.Fprintln(out)

			if !asXML {
				fmt.Fprintln(out, resp.Text())
				return nil
			}

			m, err := resp.Structured()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			return enc.Encode(m)
		},
	}

	cmd.Flags().BoolVar(&asXML, "xml", false, "parse the body as XML and print it as JSON")
	cmd.Flags().StringVarP(&username, "username", "u", client.DefaultUsername, "basic auth user")
	cmd.Flags().StringVarP(&password, "password", "p", client.DefaultPassword, "basic auth password")
	cmd.Flags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "time budget for the whole exchange")

	return cmd
}
