package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeffrom/pressroom/format"
	"github.com/jeffrom/pressroom/stdio"
)

func newCheckCmd(site *siteFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "check site configuration for errors",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			std := stdio.FromContext(cmd.Context())
			plan, warnings, err := site.resolve(dirArg(args))
			if err != nil {
				return err
			}

			tw := format.NewTabWriter(std.Stdout())
			format.WriteTabRow(tw, "input", plan.InputDir())
			format.WriteTabRow(tw, "output", plan.OutputDir())
			format.WriteTabRow(tw, "includes", plan.IncludesDir())
			format.WriteTabRow(tw, "formats", strings.Join(plan.TemplateFormats(), ","))
			format.WriteTabRow(tw, "production", format.Bool(plan.ProductionMode()))
			for _, pt := range plan.PassthroughPaths() {
				format.WriteTabRow(tw, "passthrough", pt.Source+" -> "+pt.Dest)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, w := range warnings {
				std.Warning(w)
			}
			return nil
		},
	}
	return cmd
}
