package commands

import (
	"context"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jeffrom/pressroom/builder"
	"github.com/jeffrom/pressroom/config"
	"github.com/jeffrom/pressroom/metrics"
	"github.com/jeffrom/pressroom/stdio"
)

type buildFlags struct {
	concurrency int
	precompress bool
	metricsFile string
}

func (f *buildFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVarP(&f.concurrency, "concurrency", "j", runtime.NumCPU(), "number of pages to render at once")
	flags.BoolVar(&f.precompress, "precompress", false, "write gzipped copies of html, css, and js outputs")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "write build metrics to a node_exporter textfile")
}

func (f *buildFlags) builder(ctx context.Context, plan *config.BuildPlan, warnings []error) (*builder.Builder, *metrics.Recorder, error) {
	std := stdio.FromContext(ctx)
	pipe, err := newPipeline(std.AppendScope("pipeline").Logger())
	if err != nil {
		return nil, nil, err
	}
	var rec *metrics.Recorder
	if f.metricsFile != "" {
		rec = metrics.New()
	}
	return builder.New(plan, pipe, builder.Options{
		Concurrency: f.concurrency,
		Precompress: f.precompress,
		Warnings:    warnings,
		Metrics:     rec,
	}), rec, nil
}

func newBuildCmd(site *siteFlags) *cobra.Command {
	build := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build [dir]",
		Short: "build the site in dir",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), site, build, args)
		},
	}
	build.register(cmd)
	return cmd
}

func runBuild(ctx context.Context, site *siteFlags, build *buildFlags, args []string) error {
	std := stdio.FromContext(ctx)
	plan, warnings, err := site.resolve(dirArg(args))
	if err != nil {
		return err
	}
	logWarnings(std, warnings)
	std.Debugf("building %s into %s", plan.InputDir(), plan.OutputDir())

	b, rec, err := build.builder(ctx, plan, warnings)
	if err != nil {
		return err
	}
	res, err := b.Build(ctx)
	if err != nil {
		return err
	}
	if !std.Quiet {
		if err := res.TextSummary(std.Stdout()); err != nil {
			return err
		}
	}
	if build.metricsFile != "" {
		if err := rec.WriteTextfile(build.metricsFile); err != nil {
			return err
		}
	}
	return res.Err()
}
