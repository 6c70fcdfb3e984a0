package main

import (
	"github.com/spf13/cobra"

	app "github.com/kode4food/seqexec"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     app.Name,
		Short:   "Observatory sequence executor",
		Version: app.Version,
		Long: `Runs observation sequences against telescope and instrument
resources, keeping independent sequences running in parallel whenever
their resources do not overlap.`,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newCheckCommand())

	remote := &remoteOptions{}
	cmd.AddCommand(newLoadCommand(remote))
	cmd.AddCommand(newSubmitCommand(remote))
	cmd.AddCommand(newStatusCommand(remote))
	return cmd
}
