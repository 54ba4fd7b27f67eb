package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/lucasmaystre/spentfuelgpr/kern"
	"github.com/spf13/cobra"
)

var kernelsDim int

var kernelsCmd = &cobra.Command{
	Use:   "kernels",
	Short: "List the covariance kernel types and their parameter counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if kernelsDim < 1 {
			return fmt.Errorf("--dim must be at least 1, got %d", kernelsDim)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tPARAMS\tISOTROPIC")
		for _, t := range kern.Types() {
			fmt.Fprintf(w, "%s\t%d\t%t\n", t, kern.Arity(t, kernelsDim), t.Isotropic())
		}
		return w.Flush()
	},
}

func init() {
	kernelsCmd.Flags().IntVar(&kernelsDim, "dim", 4, "Feature dimension")
}
