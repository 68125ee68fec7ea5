package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "set <parameter> <value>",
		Short:   "Write one controller register",
		Example: "  ecoal-bridge set kot_tzad 60\n  ecoal-bridge set tryb_auto 1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*flags)
			if err != nil {
				return err
			}

			svc, err := newService(cfg, log)
			if err != nil {
				return err
			}

			if err := svc.SetRegister(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], args[1])

			return nil
		},
	}
}
