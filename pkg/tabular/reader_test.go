package tabular

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nbeckett/tiercloud/pkg/errors"
)

// writeFile creates a temp input file and returns its path.
func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func collect(t *testing.T, r *Reader) []Row {
	t.Helper()
	var rows []Row
	if err := r.Each(func(row Row) error {
		rows = append(rows, row)
		return nil
	}); err != nil {
		t.Fatalf("Each error: %v", err)
	}
	return rows
}

func TestReaderBasic(t *testing.T) {
	path := writeFile(t, "token,weight\nfoo,1\nbar,5.5\nbaz,10\n")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, 0)

	rows := collect(t, r)
	want := []Row{
		{Content: "foo", Score: 1},
		{Content: "bar", Score: 5.5},
		{Content: "baz", Score: 10},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %+v, want %+v", rows, want)
	}
}

func TestReaderColumnOrder(t *testing.T) {
	// Column positions come from the header, not from argument order.
	path := writeFile(t, "weight,extra,token\n3,x,foo\n")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, 0)

	rows := collect(t, r)
	if len(rows) != 1 || rows[0].Content != "foo" || rows[0].Score != 3 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestReaderHeaderWhitespace(t *testing.T) {
	path := writeFile(t, " token , weight \nfoo,2\n")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, 0)

	rows := collect(t, r)
	if len(rows) != 1 || rows[0].Score != 2 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestReaderUnparseableScore(t *testing.T) {
	path := writeFile(t, "token,weight\nfoo,not-a-number\nbar,\nbaz, 7 \n")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, 0)

	rows := collect(t, r)
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Score != 0 || rows[1].Score != 0 {
		t.Errorf("unparseable scores should coerce to 0: %+v", rows)
	}
	if rows[2].Score != 7 {
		t.Errorf("whitespace-padded score should parse: %+v", rows[2])
	}
}

func TestReaderRaggedRecords(t *testing.T) {
	path := writeFile(t, "token,weight,note\nfoo,1\nbar\n")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, 0)

	rows := collect(t, r)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	// Missing trailing fields read as empty, so the score coerces to 0.
	if rows[1].Content != "bar" || rows[1].Score != 0 {
		t.Errorf("short record mishandled: %+v", rows[1])
	}
}

func TestReaderIgnoreColumn(t *testing.T) {
	path := writeFile(t, "token,weight,keep\nfoo,1,yes\nbar,2,\nbaz,3,no\n")
	r := NewReader(path, Columns{Content: "token", Score: "weight", Ignore: "keep"}, 0)

	rows := collect(t, r)
	want := []bool{false, true, false}
	for i, row := range rows {
		if row.Ignore != want[i] {
			t.Errorf("row %d Ignore = %v, want %v", i, row.Ignore, want[i])
		}
	}
}

func TestReaderNoIgnoreColumn(t *testing.T) {
	path := writeFile(t, "token,weight\nfoo,1\n")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, 0)

	rows := collect(t, r)
	if rows[0].Ignore {
		t.Error("rows must not be ignorable without an ignore column")
	}
}

func TestReaderCustomDelimiter(t *testing.T) {
	path := writeFile(t, "token\tweight\nfoo\t4\n")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, '\t')

	rows := collect(t, r)
	if len(rows) != 1 || rows[0].Content != "foo" || rows[0].Score != 4 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestReaderQuotedNewline(t *testing.T) {
	path := writeFile(t, "token,weight\n\"line one\nline two\",9\n")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, 0)

	rows := collect(t, r)
	if len(rows) != 1 || rows[0].Content != "line one\nline two" {
		t.Errorf("quoted newline lost: %+v", rows)
	}
}

func TestReaderMissingColumn(t *testing.T) {
	path := writeFile(t, "token,weight\nfoo,1\n")
	r := NewReader(path, Columns{Content: "token", Score: "salience"}, 0)

	err := r.Each(func(Row) error { return nil })
	if !errors.Is(err, errors.ErrCodeInvalidColumn) {
		t.Errorf("expected INVALID_COLUMN, got %v", err)
	}
}

func TestReaderFileNotFound(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "missing.csv"),
		Columns{Content: "token", Score: "weight"}, 0)

	err := r.Each(func(Row) error { return nil })
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND, got %v", err)
	}
}

func TestReaderEmptyFile(t *testing.T) {
	path := writeFile(t, "")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, 0)

	err := r.Each(func(Row) error { return nil })
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestReaderRestreamable(t *testing.T) {
	path := writeFile(t, "token,weight\nfoo,1\nbar,2\n")
	r := NewReader(path, Columns{Content: "token", Score: "weight"}, 0)

	first := collect(t, r)
	second := collect(t, r)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass differs: %+v vs %+v", first, second)
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.5", 1.5},
		{" -3 ", -3},
		{"1e2", 100},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := ParseScore(tt.in); got != tt.want {
			t.Errorf("ParseScore(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
}
