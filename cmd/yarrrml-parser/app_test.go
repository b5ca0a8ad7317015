package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/diagnostic"
)

const peopleDoc = `prefixes:
  foaf: http://xmlns.com/foaf/0.1/
mappings:
  person:
    sources:
      - [people.csv~csv]
    s: http://ex.org/person/$(id)
    po:
      - [a, foaf:Person]
      - [foaf:name, $(name)]
`

const companyDoc = `mappings:
  company:
    sources:
      - [companies.csv~csv]
    s: http://ex.org/company/$(id)
    po:
      - [foaf:name, $(name)]
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestCompileToStdout(t *testing.T) {
	input := writeInput(t, t.TempDir(), "people.yml", peopleDoc)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{inputs: []string{input}}, &out, discardLogger()))

	text := out.String()
	assert.Contains(t, text, "@prefix rr: <http://www.w3.org/ns/r2rml#> .")
	assert.Contains(t, text, "@prefix foaf: <http://xmlns.com/foaf/0.1/> .")
	assert.Contains(t, text, "@prefix : <http://example.com/> .")
	assert.Contains(t, text, ":person rml:logicalSource _:b0 ;\n    a rr:TriplesMap ;")
	assert.Contains(t, text, "ql:CSV")
}

func TestCompileMergesGlobInputs(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a.yml", peopleDoc)
	writeInput(t, dir, "b.yml", companyDoc)
	writeInput(t, dir, "notes.txt", "not a mapping")

	var out bytes.Buffer
	opts := options{inputs: []string{filepath.Join(dir, "*.yml")}, syntax: "nt"}
	require.NoError(t, run(context.Background(), opts, &out, discardLogger()))

	assert.Contains(t, out.String(), "<http://example.com/person> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/r2rml#TriplesMap> .")
	assert.Contains(t, out.String(), "<http://example.com/company> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/r2rml#TriplesMap> .")
}

func TestCompileThenDecompile(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "people.yml", peopleDoc)
	rules := filepath.Join(dir, "out", "rules.nt")

	opts := options{inputs: []string{input}, output: rules, syntax: "ntriples"}
	require.NoError(t, run(context.Background(), opts, io.Discard, discardLogger()))
	require.FileExists(t, rules)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{inputs: []string{rules}, format: "YAML"}, &out, discardLogger()))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got), out.String())

	mappings, ok := got["mappings"].(map[string]any)
	require.True(t, ok, out.String())
	assert.Contains(t, mappings, "person")
}

func TestCompileThenDecompileTurtle(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "people.yml", peopleDoc)
	rules := filepath.Join(dir, "rules.ttl")

	require.NoError(t, run(context.Background(), options{inputs: []string{input}, output: rules}, io.Discard, discardLogger()))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{inputs: []string{rules}, format: "YAML"}, &out, discardLogger()))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got), out.String())

	mappings, ok := got["mappings"].(map[string]any)
	require.True(t, ok, out.String())
	assert.Contains(t, mappings, "person")
}

func TestCompileR2RMLRejectsFunctions(t *testing.T) {
	input := writeInput(t, t.TempDir(), "emp.yml", `mappings:
  emp:
    sources:
      - table: EMP
    s: http://ex.org/emp/$(EMPNO)
    po:
      - p: http://ex.org/upper
        o:
          function: http://ex.org/upper
          parameters:
            http://ex.org/value: $(ENAME)
`)

	err := run(context.Background(), options{inputs: []string{input}, format: "r2rml"}, io.Discard, discardLogger())
	require.ErrorIs(t, err, diagnostic.ErrUnsupportedInR2RML)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	invalid := writeInput(t, dir, "bad.yml", "mappings: [\n")

	tests := []struct {
		name    string
		opts    options
		wantErr string
	}{
		{name: "no input", opts: options{}, wantErr: "please provide an input file"},
		{name: "missing file", opts: options{inputs: []string{filepath.Join(dir, "missing.yml")}}, wantErr: "is not found"},
		{name: "invalid yaml", opts: options{inputs: []string{invalid}}, wantErr: "contains invalid YAML: line"},
		{name: "unknown format", opts: options{inputs: []string{invalid}, format: "sparql"}, wantErr: "output.format"},
		{name: "unknown syntax", opts: options{inputs: []string{invalid}, syntax: "rdfxml"}, wantErr: "output.syntax"},
		{name: "missing config", opts: options{inputs: []string{invalid}, configPath: filepath.Join(dir, "none.yaml")}, wantErr: "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.opts, io.Discard, discardLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "people.yml", peopleDoc)
	cfgPath := writeInput(t, dir, "settings.yaml", `output:
  syntax: nq
base: http://maps.ex.org/
`)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{inputs: []string{input}, configPath: cfgPath}, &out, discardLogger()))
	assert.Contains(t, out.String(), "<http://maps.ex.org/person> ")

	out.Reset()
	opts := options{inputs: []string{input}, configPath: cfgPath, base: "http://flag.ex.org/"}
	require.NoError(t, run(context.Background(), opts, &out, discardLogger()))
	assert.Contains(t, out.String(), "<http://flag.ex.org/person> ")
}

func TestErrorLines(t *testing.T) {
	err := run(context.Background(), options{inputs: []string{writeInput(t, t.TempDir(), "bad.yml", `mappings:
  m:
    s: unknown:thing/$(id)
    po:
      - [other:p, $(v)]
`)}}, io.Discard, discardLogger())
	require.Error(t, err)

	lines := errorLines(err)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "line 3"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "line 5"), lines[1])

	assert.Equal(t, []string{errNoInput.Error()}, errorLines(errNoInput))
}

func TestWatchRebuilds(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "people.yml", peopleDoc)
	output := filepath.Join(dir, "rules.ttl")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- run(ctx, options{inputs: []string{input}, output: output, watch: true}, io.Discard, discardLogger())
	}()

	contains := func(s string) func() bool {
		return func() bool {
			data, err := os.ReadFile(output)
			return err == nil && strings.Contains(string(data), s)
		}
	}

	require.Eventually(t, contains(":person rml:logicalSource"), 5*time.Second, 20*time.Millisecond)

	writeInput(t, dir, "people.yml", strings.Replace(peopleDoc, "person:", "agent:", 1))

	require.Eventually(t, contains(":agent rml:logicalSource"), 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer

	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "yarrrml-parser version 0.1.0\n", out.String())
}

func TestRootCommandRequiresInput(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--log-level", "error"})

	require.ErrorIs(t, cmd.Execute(), errNoInput)
}
