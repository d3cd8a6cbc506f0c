// Package table implements an index-driven dispatcher: an index file
// mapping (command, tag attributes...) to a template path, used to
// select and run one fsmtemplate.Template out of many.
package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	fsm "github.com/coredevice/fsmtemplate"
	"github.com/hashicorp/go-hclog"
)

// ParseRequest bundles the inputs a Table needs to select and run a
// template, as an explicit struct rather than a loosely-typed map:
// Command and Text are promoted to first-class fields instead of living
// inside the tag map.
type ParseRequest struct {
	Command string
	Tags    map[string]string
	Text    string
}

// Table is a validated index: an ordered set of rows, each pairing a
// command/attribute pattern set with a template path. Templates
// referenced by rows are compiled lazily, on first successful match,
// and cached by path for the Table's lifetime, so a row that's never
// matched is never compiled and a row matched repeatedly is never
// recompiled.
type Table struct {
	indexPath string
	fsys      fs.FS
	headers   []string
	rows      []*row

	opts   []fsm.Option
	logger hclog.Logger

	mu        sync.Mutex
	templates map[string]*fsm.Template
}

// Open reads and validates an index file rooted at fsys, returning a Table
// ready for Parse calls. fsys is also used to resolve the template paths
// named by the index's rows.
func Open(fsys fs.FS, indexPath string, opts ...fsm.Option) (*Table, error) {
	settings := fsm.ResolveSettings(opts...)

	f, err := fsys.Open(indexPath)
	if err != nil {
		return nil, &fsm.TableError{Path: indexPath, Msg: "cannot open index: " + err.Error()}
	}
	defer f.Close()

	headers, rawRows, err := readIndex(bufio.NewScanner(f))
	if err != nil {
		return nil, wrapTableErr(indexPath, err)
	}
	if headers == nil {
		return nil, &fsm.TableError{Path: indexPath, Msg: "index has no header row"}
	}

	t := &Table{
		indexPath: indexPath,
		fsys:      fsys,
		headers:   headers,
		opts:      opts,
		logger:    settings.Logger,
		templates: map[string]*fsm.Template{},
	}

	for _, cols := range rawRows {
		r, err := newRow(indexPath, headers, cols)
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, r)
	}

	t.logger.Debug("opened table", "path", indexPath, "rows", len(t.rows), "attributes", len(headers)-2)
	return t, nil
}

// readIndex scans the raw lines of an index file and splits them into
// the header row and the remaining data rows, skipping comment (^\s*#)
// and blank lines. Each surviving line is then split with encoding/csv
// so quoted fields with embedded commas still work.
func readIndex(sc *bufio.Scanner) (headers []string, rows [][]string, err error) {
	for sc.Scan() {
		raw := sc.Text()
		if commentLine(raw) || strings.TrimSpace(raw) == "" {
			continue
		}
		cols, err := splitCSVLine(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("malformed row: %w", err)
		}
		if headers == nil {
			if !isHeaderRow(cols) {
				continue
			}
			headers = cols
			continue
		}
		rows = append(rows, cols)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return headers, rows, nil
}

func commentLine(s string) bool {
	return strings.HasPrefix(strings.TrimLeft(s, " \t"), "#")
}

func isHeaderRow(cols []string) bool {
	if len(cols) < 2 {
		return false
	}
	return cols[0] == "template" && cols[len(cols)-1] == "command"
}

func splitCSVLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	return r.Read()
}

func wrapTableErr(path string, err error) error {
	if te, ok := err.(*fsm.TableError); ok {
		return te
	}
	return &fsm.TableError{Path: path, Msg: err.Error()}
}

// Parse selects the first row whose command pattern matches req.Command
// and whose attribute patterns all match the corresponding req.Tags entry,
// compiles (or reuses a cached compile of) the referenced template, and
// delegates to its Parse. Returns *fsm.TemplateNotFoundError if no row
// matches, and *fsm.TableError if req.Tags names an attribute the index
// never declared.
func (t *Table) Parse(req ParseRequest) (fsm.Records, error) {
	for attr := range req.Tags {
		if !t.hasAttribute(attr) {
			return nil, &fsm.TableError{Path: t.indexPath, Msg: "unknown attribute: " + attr}
		}
	}

	for _, r := range t.rows {
		if !r.match(req.Command, req.Tags) {
			continue
		}
		tmpl, err := t.templateFor(r.templatePath)
		if err != nil {
			return nil, err
		}
		t.logger.Trace("table row matched", "command", req.Command, "template", r.templatePath)
		return tmpl.Parse(req.Text)
	}

	return nil, &fsm.TemplateNotFoundError{Path: req.Command}
}

func (t *Table) hasAttribute(attr string) bool {
	for _, h := range t.headers {
		if h == attr {
			return true
		}
	}
	return false
}

func (t *Table) templateFor(path string) (*fsm.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tmpl, ok := t.templates[path]; ok {
		return tmpl, nil
	}

	f, err := t.fsys.Open(path)
	if err != nil {
		return nil, &fsm.TemplateNotFoundError{Path: path}
	}
	defer f.Close()

	tmpl, err := fsm.Compile(f, t.opts...)
	if err != nil {
		return nil, err
	}
	t.templates[path] = tmpl
	return tmpl, nil
}

// Headers returns the index's declared attribute columns, including
// "template" and "command", in file order.
func (t *Table) Headers() []string {
	out := make([]string, len(t.headers))
	copy(out, t.headers)
	return out
}
