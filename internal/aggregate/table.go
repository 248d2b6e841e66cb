package aggregate

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"fitdiary/internal/models"
)

// BOM marks the CSV as UTF-8 for spreadsheet apps.
const BOM = "\uFEFF"

// Columns is the header shared by the CSV and table exports.
var Columns = []string{"Date", "WaterIntake", "SleepHours", "Steps", "Mood", "Weight"}

// Table is the export re-projected as rows of display strings.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ToTable renders each record as one row, in input order.
func ToTable(records []models.HealthRecord) Table {
	t := Table{
		Header: append([]string(nil), Columns...),
		Rows:   make([][]string, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, row(r))
	}
	return t
}

func row(r models.HealthRecord) []string {
	return []string{
		r.Date,
		FormatNumber(r.WaterIntake),
		FormatNumber(r.SleepHours),
		strconv.Itoa(r.Steps),
		r.Mood,
		FormatNumber(r.Weight),
	}
}

// WriteCSV writes the BOM, the header and one line per record. Lines end in
// "\n". A field containing a comma or quote is quoted rather than corrupting
// its row.
func WriteCSV(w io.Writer, records []models.HealthRecord) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write row %s: %w", r.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToCSV is WriteCSV into a string.
func ToCSV(records []models.HealthRecord) string {
	var buf bytes.Buffer
	// bytes.Buffer writes never fail
	_ = WriteCSV(&buf, records)
	return buf.String()
}

// ErrBadHeader is returned by ParseCSV when the first line is not Columns.
var ErrBadHeader = errors.New("csv header does not match export columns")

// ParseCSV reads a document produced by WriteCSV back into records. The BOM
// is optional.
func ParseCSV(r io.Reader) ([]models.HealthRecord, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(BOM)); err == nil && string(b) == BOM {
		_, _ = br.Discard(len(BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, c := range Columns {
		if header[i] != c {
			return nil, ErrBadHeader
		}
	}

	out := []models.HealthRecord{}
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRow(fields)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseRow(f []string) (models.HealthRecord, error) {
	water, err := strconv.ParseFloat(f[1], 64)
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("water intake: %w", err)
	}
	sleep, err := strconv.ParseFloat(f[2], 64)
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("sleep hours: %w", err)
	}
	steps, err := strconv.Atoi(f[3])
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("steps: %w", err)
	}
	weight, err := strconv.ParseFloat(f[5], 64)
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("weight: %w", err)
	}
	return models.HealthRecord{
		Date:        f[0],
		WaterIntake: water,
		SleepHours:  sleep,
		Steps:       steps,
		Mood:        f[4],
		Weight:      weight,
	}, nil
}
