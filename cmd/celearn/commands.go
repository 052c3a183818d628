package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/celearn/internal/version"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "celearn",
		Short: "Learn description logic class expressions from examples",
		Long: `celearn searches for EL class expressions that cover the positive
examples of a knowledge base and none of the negatives.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(&logLevel),
		newLearnCmd(&logLevel),
		newReduceCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			},
		},
	)
	return root
}
