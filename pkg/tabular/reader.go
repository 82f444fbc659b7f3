// Package tabular reads delimited input files with a header row and exposes
// rows by column name.
//
// The reader is deliberately lenient where the data allows it: records may
// have ragged field counts (missing trailing fields read as empty) and score
// values that fail to parse as numbers coerce to 0.0 instead of raising.
// Structural problems - a missing file, a column name absent from the
// header - are fatal.
//
// Files are streamed, never buffered whole. The conversion pipeline performs
// two independent passes (one to compute the score range, one to render),
// trading a second read for a flat memory profile.
package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nbeckett/tiercloud/pkg/errors"
)

// Row is a single input record. Rows are immutable once read; no row
// identity persists beyond its own processing step.
type Row struct {
	// Content is the token text. May contain embedded newlines when the
	// source field was quoted.
	Content string

	// Score is the parsed salience score. Unparseable values are 0.
	Score float64

	// Ignore marks the row as exempt from tier tagging. Set when an ignore
	// column is configured and that field is empty or absent.
	Ignore bool
}

// Columns names the fields of interest in the header row.
// Ignore is optional; when empty, no row is ever marked ignorable.
type Columns struct {
	Content string
	Score   string
	Ignore  string
}

// Reader streams rows from a delimited file.
type Reader struct {
	Path    string
	Columns Columns
	Comma   rune // field delimiter, ',' when zero
}

// NewReader creates a reader for the given file and column names.
func NewReader(path string, cols Columns, comma rune) *Reader {
	if comma == 0 {
		comma = ','
	}
	return &Reader{Path: path, Columns: cols, Comma: comma}
}

// Each performs one full sequential pass over the file, calling fn for every
// data row in input order. The header row is consumed first to resolve
// column positions. Each can be called repeatedly; every call reopens the
// file and streams it from the start.
func (r *Reader) Each(fn func(Row) error) error {
	f, err := os.Open(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "input file %s not found", r.Path)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", r.Path)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = r.Comma
	cr.FieldsPerRecord = -1 // tolerate ragged records

	header, err := cr.Read()
	if err == io.EOF {
		return errors.New(errors.ErrCodeInvalidInput, "input file %s is empty", r.Path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read header of %s", r.Path)
	}

	idx, err := resolveColumns(header, r.Columns)
	if err != nil {
		return err
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", r.Path)
		}

		row := Row{
			Content: field(record, idx.content),
			Score:   ParseScore(field(record, idx.score)),
		}
		if idx.ignore >= 0 {
			row.Ignore = field(record, idx.ignore) == ""
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// ParseScore converts a score field to a float. Values that fail to parse
// coerce to 0.0 - a deliberate leniency matching loosely-curated inputs, not
// a defect. Surrounding whitespace is ignored.
func ParseScore(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// columnIndex holds resolved header positions. ignore is -1 when no ignore
// column is configured.
type columnIndex struct {
	content int
	score   int
	ignore  int
}

func resolveColumns(header []string, cols Columns) (columnIndex, error) {
	idx := columnIndex{ignore: -1}

	var err error
	if idx.content, err = findColumn(header, cols.Content); err != nil {
		return idx, err
	}
	if idx.score, err = findColumn(header, cols.Score); err != nil {
		return idx, err
	}
	if cols.Ignore != "" {
		if idx.ignore, err = findColumn(header, cols.Ignore); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

func findColumn(header []string, name string) (int, error) {
	if name == "" {
		return -1, errors.New(errors.ErrCodeInvalidColumn, "column name cannot be empty")
	}
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i, nil
		}
	}
	return -1, errors.New(errors.ErrCodeInvalidColumn, "no column named %q in header %v", name, header)
}

// field returns record[i], or "" when the record is too short.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
