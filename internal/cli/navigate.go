package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/MrEthical07/goConsole/router"
	"github.com/spf13/cobra"
)

func newNavigateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Show where the saved session lands when opening a console page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable()
			if err != nil {
				return err
			}
			store, cleanup, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			d, err := router.NewGuard(table, store).WithLogger(opts.logger).Resolve(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch d.Outcome {
			case router.Allow:
				fmt.Fprintf(out, "allow %s (%s)\n", d.Target, d.Match.Route().Name)
			case router.Redirect:
				fmt.Fprintf(out, "redirect %s -> %s\n", d.Path, d.Target)
			default:
				fmt.Fprintf(out, "not found %s\n", d.Target)
			}
			return nil
		},
	}
}

func newRoutesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the console route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadTable()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPATH\tACCESS")
			printRoutes(w, table.Routes(), "")
			return w.Flush()
		},
	}
}

func printRoutes(w *tabwriter.Writer, routes []router.Route, parent string) {
	for _, r := range routes {
		p := r.Path
		if !strings.HasPrefix(p, "/") {
			p = strings.TrimSuffix(parent, "/") + "/" + p
		}
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, p, access(r))
		printRoutes(w, r.Children, p)
	}
}

func access(r router.Route) string {
	switch {
	case r.Redirect != nil:
		return "redirect"
	case r.RequiresAdmin:
		return "admin"
	case r.RequiresAuth:
		return "auth"
	default:
		return "public"
	}
}
