package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every stored mapping as <code> -> <url>",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer a.close()

			links, err := a.links.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(links) == 0 {
				_, err = fmt.Fprintln(out, "No links")
				return err
			}
			for _, link := range links {
				if _, err := fmt.Fprintf(out, "%s -> %s\n", link.Code, link.TargetURL); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
