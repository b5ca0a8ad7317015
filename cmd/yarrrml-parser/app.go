package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cayleygraph/quad"
	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/common"
	"yarrrml-compiler/internal/compiler"
	"yarrrml-compiler/internal/config"
	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/rdfio"
	"yarrrml-compiler/internal/watch"
	"yarrrml-compiler/internal/yarrrml"
)

var errNoInput = errors.New("please provide an input file")

// options are the command line flags. Empty values defer to the config file.
type options struct {
	inputs          []string
	output          string
	format          string
	watch           bool
	syntax          string
	configPath      string
	preserveDialect bool
	base            string
}

// app runs conversions with the resolved settings.
type app struct {
	cfg    *config.Config
	opts   options
	stdout io.Writer
	logger *slog.Logger
}

func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	if len(opts.inputs) == 0 {
		return errNoInput
	}

	cfg, err := resolveConfig(opts, logger)
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, opts: opts, stdout: stdout, logger: logger}

	if !opts.watch {
		return a.convert()
	}

	return a.watchLoop(ctx)
}

// resolveConfig loads the config file and applies the flags over it.
func resolveConfig(opts options, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger, "").Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Merge(&config.Config{
		Output: config.OutputConfig{
			Format:          strings.ToLower(opts.format),
			Syntax:          opts.syntax,
			PreserveDialect: opts.preserveDialect,
		},
		Base: opts.base,
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (a *app) compilerConfig() compiler.Config {
	return compiler.Config{
		Prefixes:        a.cfg.PrefixTable(),
		BaseIRI:         a.cfg.Base,
		PreserveDialect: a.cfg.Output.PreserveDialect,
	}
}

// convert runs one conversion of the current inputs and writes the result.
func (a *app) convert() error {
	paths, err := expandInputs(a.opts.inputs)
	if err != nil {
		return err
	}

	var out []byte

	if a.cfg.Output.Format == config.FormatYAML {
		out, err = a.decompile(paths)
	} else {
		out, err = a.compile(paths)
	}

	if err != nil {
		return err
	}

	if a.opts.output == "" {
		_, err := a.stdout.Write(out)
		return err
	}

	if err := rdfio.WriteFile(a.opts.output, out); err != nil {
		return fmt.Errorf("the output could not be written to %s: %w", a.opts.output, err)
	}

	a.logger.Info("Wrote output", "path", a.opts.output, "format", a.cfg.Output.Format)

	return nil
}

func (a *app) compile(paths []string) ([]byte, error) {
	roots := make([]*yaml.Node, 0, len(paths))

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, inputError(path, err)
		}

		root, err := yarrrml.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("the input file %s contains invalid YAML: %w", path, err)
		}

		roots = append(roots, root)
	}

	root, err := yarrrml.Merge(roots...)
	if err != nil {
		return nil, err
	}

	var res *compiler.Result

	if a.cfg.Output.Format == config.FormatR2RML {
		res, err = compiler.CompileToR2RML(root, a.compilerConfig())
	} else {
		res, err = compiler.Compile(root, a.compilerConfig())
	}

	if err != nil {
		return nil, err
	}

	for _, w := range res.Warnings {
		a.logger.Warn(w.Message, "code", string(w.Code), "mapping", w.Mapping, "line", w.Line)
	}

	syntax, err := rdfio.ParseFormat(a.cfg.Output.Syntax)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := rdfio.Write(&buf, res.Triples, syntax, rdfio.Options{Prefixes: res.Prefixes, BaseIRI: res.BaseIRI}); err != nil {
		return nil, err
	}

	a.logger.Debug("Compiled", "inputs", len(paths), "triples", len(res.Triples), "dialect", res.Dialect.String())

	return buf.Bytes(), nil
}

func (a *app) decompile(paths []string) ([]byte, error) {
	var triples []quad.Quad

	for _, path := range paths {
		format, ok := rdfio.FormatFromPath(path)
		if !ok {
			format = rdfio.Turtle
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, inputError(path, err)
		}

		quads, err := rdfio.Read(f, format)
		f.Close()

		if err != nil {
			return nil, fmt.Errorf("there is a problem with the input file %s: %w", path, err)
		}

		triples = append(triples, quads...)
	}

	return compiler.DecompileFromTriples(triples, a.compilerConfig())
}

// watch converts once, then again after every settled batch of changes.
// Conversion errors are logged and do not end the loop.
func (a *app) watchLoop(ctx context.Context) error {
	w, err := watch.New(a.opts.inputs, a.cfg.Watch.Debounce, a.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	a.rebuild()

	a.logger.Info("Watching for changes", "inputs", strings.Join(a.opts.inputs, ","))

	return w.Run(ctx, func(_ context.Context, changed []string) {
		a.logger.Info("Inputs changed", "files", strings.Join(changed, ","))
		a.rebuild()
	})
}

func (a *app) rebuild() {
	if err := a.convert(); err != nil {
		for _, line := range errorLines(err) {
			a.logger.Error(line)
		}
	}
}

// expandInputs resolves glob patterns to a sorted list of files. A plain
// path that does not exist is reported as not found.
func expandInputs(patterns []string) ([]string, error) {
	var out []string

	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad input pattern %q: %w", p, err)
		}

		if len(matches) == 0 {
			return nil, fmt.Errorf("the input file %s is not found", p)
		}

		slices.Sort(matches)
		out = append(out, matches...)
	}

	return common.Dedup(out), nil
}

func inputError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("the input file %s is not found", path)
	}

	return fmt.Errorf("reading %s: %w", path, err)
}

// errorLines splits err into one line per diagnostic.
func errorLines(err error) []string {
	all := diagnostic.All(err)
	if len(all) == 0 {
		return []string{err.Error()}
	}

	lines := make([]string, 0, len(all))
	for _, e := range all {
		lines = append(lines, e.Error())
	}

	return lines
}
