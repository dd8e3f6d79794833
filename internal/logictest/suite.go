package logictest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Suite is one entry of a suites.yaml manifest.
type Suite struct {
	Name    string `yaml:"name"`
	Dir     string `yaml:"dir"`
	Backend string `yaml:"backend"` // "native" (default) or a database/sql driver name
	DSN     string `yaml:"dsn"`
}

// Manifest lists test suites and the backend each runs against.
type Manifest struct {
	Suites []Suite `yaml:"suites"`
}

// LoadManifest reads a suites.yaml file. Relative suite dirs are resolved
// against the manifest's own directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range m.Suites {
		s := &m.Suites[i]
		if s.Name == "" {
			return nil, fmt.Errorf("%s: suite %d has no name", path, i)
		}
		if s.Dir == "" {
			return nil, fmt.Errorf("%s: suite %q has no dir", path, s.Name)
		}
		if !filepath.IsAbs(s.Dir) {
			s.Dir = filepath.Join(base, s.Dir)
		}
		if s.Backend == "" {
			s.Backend = "native"
		}
	}
	return &m, nil
}

// RunOptions control a manifest run.
type RunOptions struct {
	// Parallel caps concurrent suites. Zero or one runs them serially.
	Parallel int
	Complete bool
	Logger   *slog.Logger
}

// Run executes every suite in the manifest. Suites run concurrently up to
// the parallel cap; files within a suite run in order against one executor.
func (m *Manifest) Run(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 1 {
		g.SetLimit(opts.Parallel)
	} else {
		g.SetLimit(1)
	}

	for _, suite := range m.Suites {
		g.Go(func() error {
			if err := runSuite(ctx, suite, opts.Complete, logger); err != nil {
				return fmt.Errorf("suite %q: %w", suite.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func runSuite(ctx context.Context, suite Suite, complete bool, logger *slog.Logger) error {
	files, err := FindFixtures(suite.Dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .test files under %s", suite.Dir)
	}

	exec, err := openExecutor(ctx, suite)
	if err != nil {
		return err
	}
	defer exec.Close()

	runner := NewRunner(exec, logger)
	runner.Complete = complete
	for _, f := range files {
		logger.Info("running fixture", "suite", suite.Name, "file", f)
		if err := runner.RunFile(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func openExecutor(ctx context.Context, suite Suite) (Executor, error) {
	if suite.Backend == "native" {
		dsn := suite.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		return NewNativeExecutor(ctx, dsn)
	}
	if suite.DSN == "" {
		return nil, fmt.Errorf("backend %q needs a dsn", suite.Backend)
	}
	return OpenSQLExecutor(suite.Backend, suite.DSN)
}

// FindFixtures returns every .test file under dir, sorted by path.
func FindFixtures(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".test") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
