package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newBackendsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Probe every backend and list its state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.registry()
			if err := r.Probe(cmd.Context()); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BACKEND\tPRIORITY\tSTATE\tDETAIL")
			for _, st := range r.Status() {
				prio, detail := "-", ""
				if st.Priority >= 0 {
					prio = strconv.Itoa(st.Priority + 1)
				}
				if st.Err != nil {
					detail = st.Err.Error()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.Name, prio, st.State, detail)
			}
			return tw.Flush()
		},
	}
}
