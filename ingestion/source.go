package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/oneiro/core"
)

// Default column headers of the source file.
const (
	DefaultNarrativeColumn      = "narrative"
	DefaultInterpretationColumn = "interpretation"
)

// Columns names the source columns holding each field. Header matching is
// case-insensitive and ignores surrounding whitespace.
type Columns struct {
	Narrative      string
	Interpretation string
}

// DefaultColumns returns the standard column headers.
func DefaultColumns() Columns {
	return Columns{Narrative: DefaultNarrativeColumn, Interpretation: DefaultInterpretationColumn}
}

// Row is one usable source row.
type Row struct {
	Narrative      string
	Interpretation string
}

// Dataset is the parsed source.
type Dataset struct {
	Rows        []Row
	Skipped     int     // Rows dropped for an empty cell
	Fingerprint core.ID // Changes whenever any row changes
}

// ReadCSVFile reads a dataset from a CSV file.
func ReadCSVFile(path string, columns Columns) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, columns)
}

// ReadCSV reads a dataset from CSV with a header row. Rows with an empty
// narrative or interpretation are skipped. A narrative that appears more
// than once keeps its first position and its last interpretation.
func ReadCSV(r io.Reader, columns Columns) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, err
	}

	narrativeCol := findColumn(header, columns.Narrative)
	if narrativeCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, columns.Narrative)
	}
	interpretationCol := findColumn(header, columns.Interpretation)
	if interpretationCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, columns.Interpretation)
	}

	dataset := &Dataset{}
	index := make(map[string]int)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		narrative := cell(record, narrativeCol)
		interpretation := cell(record, interpretationCol)
		if narrative == "" || interpretation == "" {
			dataset.Skipped++
			continue
		}

		if i, ok := index[narrative]; ok {
			dataset.Rows[i].Interpretation = interpretation
			continue
		}
		index[narrative] = len(dataset.Rows)
		dataset.Rows = append(dataset.Rows, Row{Narrative: narrative, Interpretation: interpretation})
	}

	if len(dataset.Rows) == 0 {
		return nil, ErrEmptyDataset
	}
	dataset.Fingerprint = fingerprint(dataset.Rows)
	return dataset, nil
}

// Passages converts the rows to unembedded passages.
func (d *Dataset) Passages() []*core.Passage {
	passages := make([]*core.Passage, len(d.Rows))
	for i, row := range d.Rows {
		passages[i] = &core.Passage{
			Id:             core.PassageID(row.Narrative),
			Text:           row.Narrative,
			Interpretation: row.Interpretation,
			ContentHash:    core.PassageHash(row.Narrative, row.Interpretation),
		}
	}
	return passages
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

func cell(record []string, col int) string {
	if col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

// fingerprint hashes every row in order.
func fingerprint(rows []Row) core.ID {
	h, _ := blake2b.New(8, nil)
	for _, row := range rows {
		h.Write([]byte(row.Narrative))
		h.Write([]byte{0})
		h.Write([]byte(row.Interpretation))
		h.Write([]byte{'\n'})
	}
	var id core.ID
	for i, b := range h.Sum(nil) {
		id |= core.ID(b) << (8 * i)
	}
	return id
}
