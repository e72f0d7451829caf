// Package commands contains the available pressroom cli commands.
package commands

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeffrom/pressroom/config"
	"github.com/jeffrom/pressroom/minify"
	"github.com/jeffrom/pressroom/pipeline"
	"github.com/jeffrom/pressroom/stdio"
)

func ExecArgs(ctx context.Context, args []string) error {
	std := stdio.FromContext(ctx)
	ctx = stdio.SetContext(ctx, std)
	site := &siteFlags{}
	build := &buildFlags{}

	rootCmd := &cobra.Command{
		Use:           "pressroom [dir]",
		Short:         "build a static site",
		Args:          cobra.RangeArgs(0, 1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), site, build, args)
		},
	}
	pflags := rootCmd.PersistentFlags()
	pflags.StringVarP(&site.configFile, "config", "c", "", "config file (default: <dir>/"+config.DefaultFile+")")
	pflags.BoolVarP(&std.Quiet, "quiet", "q", false, "only print warnings and errors")
	pflags.BoolVarP(&std.Verbose, "verbose", "v", false, "print debug output")
	build.register(rootCmd)

	rootCmd.AddCommand(newBuildCmd(site))
	rootCmd.AddCommand(newCheckCmd(site))
	rootCmd.AddCommand(newWatchCmd(site))

	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

type siteFlags struct {
	configFile string
}

// resolve loads the .env file and configuration of the site in dir and
// resolves them into a build plan.
func (f *siteFlags) resolve(dir string) (*config.BuildPlan, []error, error) {
	if dir == "" {
		dir = "."
	}
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, err
	}

	var cfg config.Config
	var err error
	if f.configFile != "" {
		cfg, err = config.LoadFile(f.configFile)
	} else {
		cfg, err = config.LoadDir(dir)
	}
	if err != nil {
		return nil, nil, err
	}
	return config.Resolve(dir, cfg, os.Getenv)
}

// logWarnings logs configuration warnings when the build summary, which
// lists them, is not printed.
func logWarnings(std *stdio.StdIO, warnings []error) {
	if !std.Quiet {
		return
	}
	for _, w := range warnings {
		std.Warning(w)
	}
}

func newPipeline(logger zerolog.Logger) (*pipeline.Pipeline, error) {
	reg := pipeline.NewRegistry()
	if err := minify.Register(reg); err != nil {
		return nil, err
	}
	return reg.Pipeline(logger), nil
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
