package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetrow/internal/core"
	"github.com/JonMunkholm/sheetrow/internal/schema"
	"github.com/JonMunkholm/sheetrow/internal/source"
)

// templateFlags choose where templates come from.
type templateFlags struct {
	name       string
	schemaFile string
	dir        string
	noBuiltins bool
}

func (f *templateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "template", "t", "", "Registered template name")
	cmd.Flags().StringVarP(&f.schemaFile, "schema", "s", "", "Template file (.json, .yaml, .yml)")
	cmd.Flags().StringVar(&f.dir, "templates-dir", "", "Directory of template files to register")
	cmd.Flags().BoolVar(&f.noBuiltins, "no-builtins", false, "Do not register the built-in templates")
}

// registry returns every template the flags make available.
func (f *templateFlags) registry() (*core.Registry, error) {
	reg := core.NewRegistry()
	if !f.noBuiltins {
		if err := schema.RegisterBuiltins(reg); err != nil {
			return nil, err
		}
	}
	if f.dir != "" {
		if _, err := schema.LoadDir(f.dir, reg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// resolve returns the registry and the name of the chosen template, empty
// when none was chosen. A --schema file is registered, replacing any
// template of the same name.
func (f *templateFlags) resolve() (*core.Registry, string, error) {
	if f.name != "" && f.schemaFile != "" {
		return nil, "", fmt.Errorf("use either --template or --schema, not both")
	}
	reg, err := f.registry()
	if err != nil {
		return nil, "", err
	}
	if f.schemaFile != "" {
		t, err := schema.LoadFile(f.schemaFile)
		if err != nil {
			return nil, "", err
		}
		reg.Replace(t)
		return reg, t.Name(), nil
	}
	if f.name != "" {
		if _, err := reg.Get(f.name); err != nil {
			return nil, "", err
		}
	}
	return reg, f.name, nil
}

// sourceFlags configure how input files are read.
type sourceFlags struct {
	sheet      string
	charset    string
	delimiter  string
	comment    string
	trim       bool
	lazyQuotes bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet to read (default: first)")
	cmd.Flags().StringVar(&f.charset, "charset", "", "Input character set (default: utf-8)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "Field delimiter (default: comma, tab for .tsv)")
	cmd.Flags().StringVar(&f.comment, "comment", "", "Skip lines starting with this character")
	cmd.Flags().BoolVar(&f.trim, "trim", false, "Trim whitespace around fields")
	cmd.Flags().BoolVar(&f.lazyQuotes, "lazy-quotes", false, "Tolerate bare quotes in fields")
}

func (f *sourceFlags) open(path string) (core.RecordSource, error) {
	opts := source.Options{
		Sheet:      f.sheet,
		Charset:    f.charset,
		TrimSpace:  f.trim,
		LazyQuotes: f.lazyQuotes,
	}
	var err error
	if opts.Delimiter, err = singleRune("delimiter", f.delimiter); err != nil {
		return nil, err
	}
	if opts.Comment, err = singleRune("comment", f.comment); err != nil {
		return nil, err
	}
	return source.Open(path, opts)
}

func singleRune(flag, s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r := []rune(s)
	switch len(r) {
	case 0:
		return 0, nil
	case 1:
		return r[0], nil
	}
	return 0, fmt.Errorf("--%s must be a single character, got %q", flag, s)
}

func newTemplatesCmd() *cobra.Command {
	var flags templateFlags
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := flags.registry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range reg.All() {
				var cols []string
				for _, c := range t.Columns() {
					col := c.Name
					if c.Required {
						col += "*"
					}
					cols = append(cols, col)
				}
				fmt.Fprintf(out, "%s\t%s\n", t.Name(), strings.Join(cols, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.dir, "templates-dir", "", "Directory of template files to register")
	cmd.Flags().BoolVar(&flags.noBuiltins, "no-builtins", false, "Do not register the built-in templates")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var (
		flags  templateFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "schema <template>",
		Short: "Print a template's schema document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := flags.registry()
			if err != nil {
				return err
			}
			t, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			data, err := schema.Encode(t, format)
			if err != nil {
				return err
			}
			return writeDoc(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringVar(&flags.dir, "templates-dir", "", "Directory of template files to register")
	cmd.Flags().BoolVar(&flags.noBuiltins, "no-builtins", false, "Do not register the built-in templates")
	cmd.Flags().StringVar(&format, "format", schema.FormatJSON, "Output format: json or yaml")
	return cmd
}

// writeDoc writes an encoded document followed by exactly one newline.
func writeDoc(w io.Writer, data []byte) error {
	data = append(bytes.TrimRight(data, "\n"), '\n')
	_, err := w.Write(data)
	return err
}
