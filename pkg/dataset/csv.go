package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/kacperjurak/goocclusion"
)

// Frequencies are exported as complex numbers with a zero imaginary part.
var frequencyPattern = regexp.MustCompile(`^\(?([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)[+-]0(?:\.0*)?[ij]\)?$`)

// ParseFrequencyCSV reads a two-column frequency/value file. The first column
// is a frequency written as "<f>+0i". The second is either a complex value
// "<re>+<im>i" or, without an imaginary marker, a level in dB that is
// converted to a linear magnitude.
func ParseFrequencyCSV(r io.Reader) (goocclusion.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		freqs  []float64
		values []complex128
		row    int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return goocclusion.Series{}, &RowError{Row: perr.Line, Err: fmt.Errorf("%w: %v", ErrMalformedRow, perr.Err)}
			}
			return goocclusion.Series{}, err
		}
		if len(record) != 2 {
			return goocclusion.Series{}, &RowError{Row: row, Err: fmt.Errorf("%w: expected 2 columns, got %d", ErrMalformedRow, len(record))}
		}

		f, err := parseFrequency(record[0])
		if err != nil {
			return goocclusion.Series{}, &RowError{Row: row, Err: err}
		}
		v, err := parseValue(record[1])
		if err != nil {
			return goocclusion.Series{}, &RowError{Row: row, Err: err}
		}
		freqs = append(freqs, f)
		values = append(values, v)
	}
	return goocclusion.NewSeries(freqs, values)
}

// ReadFrequencyFile parses the CSV file at path.
func ReadFrequencyFile(path string) (goocclusion.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return goocclusion.Series{}, err
	}
	defer f.Close()

	s, err := ParseFrequencyCSV(f)
	if err != nil {
		return goocclusion.Series{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func parseFrequency(field string) (float64, error) {
	m := frequencyPattern.FindStringSubmatch(strings.TrimSpace(field))
	if m == nil {
		return 0, fmt.Errorf("%w: invalid frequency %q", ErrMalformedRow, field)
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid frequency %q: %v", ErrMalformedRow, field, err)
	}
	return f, nil
}

func parseValue(field string) (complex128, error) {
	field = strings.TrimSpace(field)
	if strings.ContainsAny(field, "ij") {
		v, err := strconv.ParseComplex(strings.ReplaceAll(field, "j", "i"), 128)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid complex value %q", ErrMalformedRow, field)
		}
		return v, nil
	}
	db, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(db) {
		return 0, fmt.Errorf("%w: invalid level %q", ErrMalformedRow, field)
	}
	return complex(goocclusion.FromDB(db), 0), nil
}
