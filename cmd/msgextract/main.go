package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/romshark/msgextract/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, color.RedString("ERR:"), err)
		os.Exit(1)
	}
}

var (
	ErrSourceErrors = errors.New("source code contains errors")
	ErrOutdated     = errors.New("catalog is outdated")
)

// app is the state shared by all commands of one invocation.
type app struct {
	stdout, stderr io.Writer

	configFile string
	verbose    bool
	quiet      bool

	v   *viper.Viper
	cfg config.Config
	log *zap.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "msgextract",
		Short: "Extract translatable messages into gettext catalogs",
		Long: "msgextract extracts translatable messages from JavaScript, TypeScript, " +
			"HTML and Go sources into GNU gettext .pot templates and .po catalogs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.configFile, "config", "",
		"config file (default "+config.DefaultFileName+".yaml)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&a.quiet, "quiet", "q", false, "disable all console output except errors")

	root.AddCommand(newExtractCmd(a), newLintCmd(a))
	return root
}

// addCatalogFlags registers the flags overriding configuration values.
func addCatalogFlags(f *pflag.FlagSet) {
	f.StringP("output", "o", "", "catalog output file path")
	f.StringP("locale", "l", "", "write a .po catalog for this BCP 47 locale instead of a .pot template")
	f.Bool("keep-going", false, "continue after source errors")
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.verbose && a.quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}
	var err error
	if a.log, err = newLogger(a.verbose, a.quiet); err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	if a.v, err = config.NewViper(a.configFile); err != nil {
		return err
	}
	for key, flag := range map[string]string{
		"output":     "output",
		"locale":     "locale",
		"keep_going": "keep-going",
	} {
		if fl := cmd.Flags().Lookup(flag); fl != nil {
			if err := a.v.BindPFlag(key, fl); err != nil {
				return fmt.Errorf("binding flag %s: %w", flag, err)
			}
		}
	}
	if a.cfg, err = config.Load(a.v); err != nil {
		return err
	}
	a.resolvePaths(cmd.Flags().Changed("output"))
	a.log.Debug("configuration loaded",
		zap.String("file", a.v.ConfigFileUsed()),
		zap.String("root", a.cfg.Root),
		zap.String("output", a.cfg.Output))
	return nil
}

// resolvePaths makes relative root and output paths relative to the
// directory of the configuration file. An output path set by flag
// stays relative to the working directory.
func (a *app) resolvePaths(outputFromFlag bool) {
	used := a.v.ConfigFileUsed()
	if used == "" {
		return
	}
	dir := filepath.Dir(used)
	if !filepath.IsAbs(a.cfg.Root) {
		a.cfg.Root = filepath.Join(dir, a.cfg.Root)
	}
	if !outputFromFlag && !filepath.IsAbs(a.cfg.Output) {
		a.cfg.Output = filepath.Join(dir, a.cfg.Output)
	}
}

func newLogger(verbose, quiet bool) (*zap.Logger, error) {
	switch {
	case quiet:
		return zap.NewNop(), nil
	case verbose:
		return zap.NewDevelopment()
	}
	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	c.Encoding = "console"
	c.DisableStacktrace = true
	return c.Build()
}

// printSourceErrors lists all errors combined in err.
func (a *app) printSourceErrors(err error) {
	errs := multierr.Errors(err)
	_, _ = fmt.Fprintf(a.stderr, "%s (%d):\n", color.RedString("SOURCE ERRORS"), len(errs))
	for _, e := range errs {
		_, _ = fmt.Fprintf(a.stderr, " %s\n", e.Error())
	}
}
