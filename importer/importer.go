package importer

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/syssam/seedql/dialect"
	"github.com/syssam/seedql/generator"
	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

// GenerationAbortedMessage is written into the SQL when the generation was
// aborted. Downstream tooling uses it to detect incomplete output.
const GenerationAbortedMessage = "!!! GENERATION ABORTED !!!"

// Importer binds the generator core together: it instantiates the data
// providers, drives their build and write phases and routes the output to a
// file or a live connection.
type Importer struct {
	settings   *Settings
	dataFolder string
	dialect    dialect.Dialect
	ctx        *generator.Context
	providers  []Provider
	log        *zap.SugaredLogger
}

// New creates an importer for the given settings, entity model and provider
// registry. All providers are instantiated immediately; an unsatisfiable
// provider dependency is reported here.
func New(settings *Settings, model *schema.Model, registry *Registry) (*Importer, error) {
	d, err := dialect.New(settings.Dialect)
	if err != nil {
		return nil, err
	}
	cfg, err := settings.GeneratorConfig()
	if err != nil {
		return nil, err
	}
	imp := &Importer{
		settings:   settings,
		dataFolder: settings.DataFolder,
		dialect:    d,
		ctx:        generator.NewContext(model, d, cfg),
		log:        zap.NewNop().Sugar(),
	}
	env := &Env{DataFolder: imp.dataFolder, Settings: settings}
	imp.providers, err = registry.instantiate(env, settings.ProviderPackages)
	if err != nil {
		return nil, err
	}
	return imp, nil
}

// WithLogger sets the logger.
func (i *Importer) WithLogger(log *zap.SugaredLogger) *Importer {
	i.log = log
	return i
}

// Context returns the generator context of the run.
func (i *Importer) Context() *generator.Context { return i.ctx }

// Providers returns the providers in execution order.
func (i *Importer) Providers() []Provider { return i.providers }

// ImportData runs the import to the configured destination: a live
// connection when a database URL is set, the output file otherwise.
func (i *Importer) ImportData(ctx context.Context) error {
	if i.settings.DatabaseURL != "" {
		db, err := sql.Open(i.dialect.DriverName(), i.settings.DatabaseURL)
		if err != nil {
			return fmt.Errorf("importer: open database: %w", err)
		}
		defer db.Close()
		return i.ImportConn(ctx, db)
	}
	return i.ImportFile(i.settings.OutputFile)
}

// ImportFile runs the import into the given SQL file.
func (i *Importer) ImportFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("importer: create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("importer: create output file: %w", err)
	}
	defer f.Close()
	if err := i.ImportWriter(f); err != nil {
		return err
	}
	i.log.Infof("%q generated.", path)
	return nil
}

// ImportWriter runs the import into the given writer, applying the
// configured output encoding.
func (i *Importer) ImportWriter(out io.Writer) error {
	encoded, err := encodeWriter(out, i.settings.OutputEncoding)
	if err != nil {
		return err
	}
	w := statements.NewFileWriter(encoded, i.dialect)
	if err := i.importData(w); err != nil {
		// Keep whatever was written, the abort marker included.
		_ = w.Flush()
		return err
	}
	return w.Flush()
}

// ImportConn runs the import against a live connection. The connection
// owns the transaction; nothing is committed here.
func (i *Importer) ImportConn(ctx context.Context, conn statements.ExecQuerier) error {
	w := statements.NewConnectedWriter(ctx, conn, i.dialect).WithLogger(i.log)
	return i.importData(w)
}

// importData drives the providers and writes all statements. On any error
// the section separator, the abort marker and a textual stack trace are
// appended before the error is passed on - the importer is the only
// component that writes the abort marker.
func (i *Importer) importData(w statements.Writer) error {
	if err := i.run(w); err != nil {
		_ = w.WriteSectionSeparator()
		_ = w.WriteComment("\n" + GenerationAbortedMessage + "\n\n" + string(debug.Stack()))
		return err
	}
	return nil
}

// run is the happy path of one import.
func (i *Importer) run(w statements.Writer) error {
	i.log.Infof("Using %s for SQL generation.", i.dialect.Name())

	for _, p := range i.providers {
		if err := p.BuildEntities(); err != nil {
			return fmt.Errorf("importer: build entities of %s: %w", p.Name(), err)
		}
	}

	if err := w.WriteComment("Generated by seedql EntityImporter for " + i.dialect.Name()); err != nil {
		return err
	}
	if err := i.writePropertyPart(w, "prefix", i.settings.Prefix); err != nil {
		return err
	}

	gen := generator.NewGenerator(i.ctx, w)
	for _, p := range i.providers {
		if err := w.WriteSectionSeparator(); err != nil {
			return err
		}
		if err := w.WriteComment("Data from " + p.Name()); err != nil {
			return err
		}
		if err := p.WriteEntities(gen); err != nil {
			return err
		}
		i.log.Infof("Generated SQL for %s", p.Name())
	}

	if err := i.ctx.CheckPending(); err != nil {
		return err
	}
	if err := i.ctx.WriteAlignmentStatements(w); err != nil {
		return err
	}

	return i.writePropertyPart(w, "postfix", i.settings.Postfix)
}

// writePropertyPart writes the prefix or postfix part: a separated list of
// .sql file paths inlined with a comment each, or a literal SQL fragment.
// Only file output carries these parts.
func (i *Importer) writePropertyPart(w statements.Writer, name, value string) error {
	fw, ok := w.(*statements.FileWriter)
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if err := fw.WriteSectionSeparator(); err != nil {
		return err
	}
	if !strings.HasSuffix(value, ".sql") {
		if err := fw.WriteComment(name); err != nil {
			return err
		}
		return fw.WriteRaw(value + "\n")
	}
	for _, fileName := range splitPathList(value) {
		path := fileName
		if !filepath.IsAbs(path) {
			path = filepath.Join(i.dataFolder, fileName)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if err := fw.WriteComment("Ignored missing file: " + fileName); err != nil {
				return err
			}
			continue
		}
		if err := fw.WriteComment(fileName); err != nil {
			return err
		}
		if err := fw.WriteRaw(string(data) + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// splitPathList splits a prefix/postfix file list on newlines, commas,
// semicolons and the platform path list separator.
func splitPathList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';' || r == os.PathListSeparator
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// encodeWriter wraps the writer with the named character encoding. UTF-8
// passes through.
func encodeWriter(w io.Writer, name string) (io.Writer, error) {
	switch strings.ToUpper(name) {
	case "", "UTF-8", "UTF8":
		return w, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("importer: unknown output encoding %q", name)
	}
	if enc == encoding.Nop {
		return w, nil
	}
	return transform.NewWriter(w, enc.NewEncoder()), nil
}
