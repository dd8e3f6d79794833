package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/albinkc/databend/internal/logictest"
)

func newRunCmd() *cobra.Command {
	var (
		backend  string
		dsn      string
		manifest string
		complete bool
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run logic test fixtures",
		Long: "Runs the given fixture files or directories. With no paths, runs every\n" +
			"suite listed in the manifest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			var err error
			if len(args) == 0 {
				err = runManifest(ctx, manifest, parallel, complete, logger)
			} else {
				err = runPaths(ctx, args, backend, dsn, complete, logger)
			}
			if err != nil {
				printFailure(err)
				return fmt.Errorf("logic tests failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "native", "executor backend: native or a database/sql driver name")
	cmd.Flags().StringVar(&dsn, "dsn", "", "data source name for non-native backends, or metastore path for native")
	cmd.Flags().StringVar(&manifest, "manifest", "testdata/suites.yaml", "suite manifest to run when no paths are given")
	cmd.Flags().BoolVar(&complete, "complete", false, "rewrite expected blocks from actual output")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "max suites to run concurrently")
	return cmd
}

func runManifest(ctx context.Context, path string, parallel int, complete bool, logger *slog.Logger) error {
	m, err := logictest.LoadManifest(path)
	if err != nil {
		return err
	}
	return m.Run(ctx, logictest.RunOptions{
		Parallel: parallel,
		Complete: complete,
		Logger:   logger,
	})
}

func runPaths(ctx context.Context, paths []string, backend, dsn string, complete bool, logger *slog.Logger) error {
	exec, err := openExecutor(ctx, backend, dsn)
	if err != nil {
		return err
	}
	defer exec.Close()

	runner := logictest.NewRunner(exec, logger)
	runner.Complete = complete

	for _, path := range paths {
		files := []string{path}
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			files, err = logictest.FindFixtures(path)
			if err != nil {
				return err
			}
		}
		for _, f := range files {
			logger.Info("running fixture", "file", f)
			if err := runner.RunFile(ctx, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func openExecutor(ctx context.Context, backend, dsn string) (logictest.Executor, error) {
	if backend == "native" {
		if dsn == "" {
			dsn = ":memory:"
		}
		return logictest.NewNativeExecutor(ctx, dsn)
	}
	if dsn == "" {
		return nil, fmt.Errorf("backend %q needs --dsn", backend)
	}
	return logictest.OpenSQLExecutor(backend, dsn)
}

// printFailure writes the failure to stderr, in red when attached to a
// terminal so the diff stands out in long runs.
func printFailure(err error) {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprintf(os.Stderr, "\x1b[31m%v\x1b[0m\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
