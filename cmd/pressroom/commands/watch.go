package commands

import (
	"github.com/spf13/cobra"

	"github.com/jeffrom/pressroom/builder"
	"github.com/jeffrom/pressroom/stdio"
	"github.com/jeffrom/pressroom/watch"
)

func newWatchCmd(site *siteFlags) *cobra.Command {
	build := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "build the site in dir, then rebuild it when files change",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			std := stdio.FromContext(ctx)
			plan, warnings, err := site.resolve(dirArg(args))
			if err != nil {
				return err
			}
			logWarnings(std, warnings)

			b, rec, err := build.builder(ctx, plan, warnings)
			if err != nil {
				return err
			}
			w := watch.New(b, plan)
			w.OnBuild = func(res *builder.Result, err error) {
				if err != nil {
					std.Warningf("build failed: %v", err)
					return
				}
				if !std.Quiet {
					if err := res.TextSummary(std.Stdout()); err != nil {
						std.Warning(err)
					}
				}
				if err := res.Err(); err != nil {
					std.Warning(err)
				}
				if build.metricsFile != "" {
					if err := rec.WriteTextfile(build.metricsFile); err != nil {
						std.Warning(err)
					}
				}
			}
			std.Infof("watching %s for changes", plan.InputDir())
			return w.Run(ctx)
		},
	}
	build.register(cmd)
	return cmd
}
