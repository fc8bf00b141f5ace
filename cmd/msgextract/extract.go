package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/romshark/msgextract"
	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/internal/config"
	"github.com/romshark/msgextract/internal/watch"
)

func newExtractCmd(a *app) *cobra.Command {
	var watchMode bool
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract messages and write the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watchMode {
				return a.watch(cmd.Context())
			}
			return a.extractAndSave(cmd.Context())
		},
	}
	addCatalogFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false,
		"re-extract whenever a source file changes")
	return cmd
}

// extract parses all configured sources into a fresh session.
// With keep-going the session holds the messages of all valid files
// and the returned error combines all source errors.
func (a *app) extract(ctx context.Context) (*msgextract.Session, error) {
	s := msgextract.New(
		msgextract.WithLogger(a.log),
		msgextract.WithNodeBudget(a.cfg.NodeBudget),
	)
	jobs, err := config.Build(a.cfg, s)
	if err != nil {
		return nil, err
	}
	var errs error
	for _, j := range jobs {
		err := s.ParseFiles(ctx, j.Parser, j.Files, a.cfg.FilesOptions())
		switch {
		case err == nil:
		case errors.Is(err, catalog.ErrConfig), ctx.Err() != nil:
			return nil, fmt.Errorf("%s: %w", j.Name, err)
		case !a.cfg.KeepGoing:
			return nil, sourceErrors{err}
		default:
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return s, sourceErrors{errs}
	}
	return s, nil
}

// sourceErrors are errors in the parsed sources as opposed
// to errors of the configuration or the environment.
type sourceErrors struct{ err error }

func (e sourceErrors) Error() string { return e.err.Error() }
func (e sourceErrors) Unwrap() error { return e.err }

// render returns the catalog file contents of s.
// A `.po` catalog keeps the translations of existing.
func (a *app) render(s *msgextract.Session, existing []byte) (string, error) {
	locale, err := a.cfg.Language()
	if err != nil {
		return "", err
	}
	if a.cfg.Locale == "" {
		return s.POT(a.cfg.GettextHeaders()...)
	}
	return s.UpdatePO(existing, locale, a.cfg.GettextHeaders()...)
}

func (a *app) save(s *msgextract.Session) (written bool, err error) {
	locale, err := a.cfg.Language()
	if err != nil {
		return false, err
	}
	if a.cfg.Locale == "" {
		return s.SavePOT(a.cfg.Output, a.cfg.GettextHeaders()...)
	}
	return s.SavePO(a.cfg.Output, locale, a.cfg.GettextHeaders()...)
}

func (a *app) extractAndSave(ctx context.Context) error {
	start := time.Now()
	s, err := a.extract(ctx)
	var srcErrs sourceErrors
	if errors.As(err, &srcErrs) {
		a.printSourceErrors(srcErrs.err)
	}
	if s == nil {
		if srcErrs.err != nil {
			return ErrSourceErrors
		}
		return err
	}

	written, err := a.save(s)
	if err != nil {
		return err
	}
	if !a.quiet {
		s.PrintStats(a.stderr)
		if written {
			_, _ = fmt.Fprintf(a.stderr, "%-24s %s\n", "Written:", a.cfg.Output)
		} else {
			_, _ = fmt.Fprintf(a.stderr, "%-24s %s\n", "Unchanged:", a.cfg.Output)
		}
		_, _ = fmt.Fprintf(a.stderr, "%-24s %s\n", "Time total:", time.Since(start).String())
	}
	if srcErrs.err != nil {
		return ErrSourceErrors
	}
	return nil
}

func (a *app) watch(ctx context.Context) error {
	output, err := filepath.Abs(a.cfg.Output)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}
	a.log.Info("watching for changes", zap.String("root", a.cfg.Root))
	return watch.Run(ctx, a.cfg.Root, watch.Options{
		Logger: a.log,
		Ignore: func(path string) bool {
			abs, err := filepath.Abs(path)
			return err == nil && abs == output
		},
	}, func(ctx context.Context, changed []string) error {
		if len(changed) > 0 && !a.quiet {
			_, _ = fmt.Fprintf(a.stderr, "%d file(s) changed, re-extracting\n", len(changed))
		}
		err := a.extractAndSave(ctx)
		if errors.Is(err, ErrSourceErrors) {
			// Already listed, keep watching.
			return nil
		}
		return err
	})
}
