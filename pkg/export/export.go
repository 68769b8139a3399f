// Package export serializes flow records.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/tradeflow/core/model"
)

// Header is the column layout of flow CSV files.
var Header = []string{"Exporter", "Importer", "Year", "Quantity"}

// Format names an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath derives the format from the file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Write encodes flows to w in the given format.
func Write(w io.Writer, format Format, flows []model.Flow) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, flows)
	case FormatJSON:
		return WriteJSON(w, flows)
	case FormatXLSX:
		return WriteXLSX(w, flows)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteFile creates path, including parent directories, and writes flows to it.
func WriteFile(path string, format Format, flows []model.Flow) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, format, flows)
}

// WriteJSON writes flows to w as a JSON array.
func WriteJSON(w io.Writer, flows []model.Flow) error {
	if flows == nil {
		flows = []model.Flow{}
	}
	return json.NewEncoder(w).Encode(flows)
}

// WriteCSV writes flows to w with the Exporter,Importer,Year,Quantity header.
// Years and quantities are base-10 integers.
func WriteCSV(w io.Writer, flows []model.Flow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, f := range flows {
		rec := []string{
			f.Exporter,
			f.Importer,
			strconv.Itoa(f.Year),
			strconv.FormatInt(f.Quantity, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ErrBadHeader is returned when a CSV does not start with Header.
var ErrBadHeader = errors.New("unexpected flow csv header")

// ReadCSV parses a file written by WriteCSV.
func ReadCSV(r io.Reader) ([]model.Flow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	head, err := cr.Read()
	if err == io.EOF {
		return nil, ErrBadHeader
	}
	if err != nil {
		return nil, err
	}
	for i, h := range Header {
		if strings.TrimSpace(strings.TrimPrefix(head[i], "\ufeff")) != h {
			return nil, fmt.Errorf("%w: %v", ErrBadHeader, head)
		}
	}
	var out []model.Flow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: year: %w", line, err)
		}
		q, err := strconv.ParseInt(strings.TrimSpace(rec[3]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: quantity: %w", line, err)
		}
		out = append(out, model.Flow{Exporter: rec[0], Importer: rec[1], Year: year, Quantity: q})
	}
	return out, nil
}

// ReadJSON parses a file written by WriteJSON.
func ReadJSON(r io.Reader) ([]model.Flow, error) {
	var out []model.Flow
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFile loads flows from a CSV or JSON file chosen by extension.
func ReadFile(path string) ([]model.Flow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	switch FormatFromPath(path) {
	case FormatJSON:
		return ReadJSON(f)
	case FormatXLSX:
		return nil, fmt.Errorf("reading %s: xlsx flow files are write-only", path)
	default:
		return ReadCSV(f)
	}
}
