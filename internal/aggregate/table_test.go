package aggregate

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"fitdiary/internal/models"
)

const header = "Date,WaterIntake,SleepHours,Steps,Mood,Weight\n"

func TestToCSV_Empty(t *testing.T) {
	got := ToCSV(nil)
	if got != BOM+header {
		t.Errorf("ToCSV(nil) = %q, want BOM + header", got)
	}
}

func TestToCSV_Rows(t *testing.T) {
	got := ToCSV(sampleRecords())
	want := BOM + header +
		"2024-05-01,2000.0,7.5,10000,😊,70.0\n" +
		"2024-05-02,1800.0,6.5,8000,😐,70.2\n"
	if got != want {
		t.Errorf("ToCSV() =\n%q\nwant\n%q", got, want)
	}
	if !strings.HasPrefix(got, "\xEF\xBB\xBF") {
		t.Error("ToCSV() does not start with the UTF-8 BOM bytes")
	}
}

func TestToCSV_QuotesCommas(t *testing.T) {
	recs := []models.HealthRecord{{Date: "2024-05-01", Mood: "ok, fine"}}
	got := ToCSV(recs)
	if !strings.Contains(got, `"ok, fine"`) {
		t.Errorf("ToCSV() = %q, want the mood field quoted", got)
	}
	back, err := ParseCSV(strings.NewReader(got))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if back[0].Mood != "ok, fine" {
		t.Errorf("round-trip Mood = %q", back[0].Mood)
	}
}

func TestParseCSV_RoundTrip(t *testing.T) {
	recs := append(sampleRecords(), models.HealthRecord{Date: "2024-05-03", Mood: "😔"})
	back, err := ParseCSV(strings.NewReader(ToCSV(recs)))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if !reflect.DeepEqual(back, recs) {
		t.Errorf("ParseCSV(ToCSV(x)) = %+v, want %+v", back, recs)
	}
	if ToCSV(back) != ToCSV(recs) {
		t.Error("ToCSV(ParseCSV(ToCSV(x))) differs from ToCSV(x)")
	}
}

func TestParseCSV_WithoutBOM(t *testing.T) {
	in := header + "2024-05-01,1.5,2.0,3,😊,4.0\n"
	got, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	want := []models.HealthRecord{{Date: "2024-05-01", WaterIntake: 1.5, SleepHours: 2, Steps: 3, Mood: "😊", Weight: 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCSV() = %+v, want %+v", got, want)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("a,b,c,d,e,f\n")); !errors.Is(err, ErrBadHeader) {
		t.Errorf("ParseCSV(bad header) error = %v, want ErrBadHeader", err)
	}
	if _, err := ParseCSV(strings.NewReader(header + "2024-05-01,x,1,1,😊,1\n")); err == nil {
		t.Error("ParseCSV(bad number) error = nil, want error")
	}
	if _, err := ParseCSV(strings.NewReader(header + "2024-05-01,1,1\n")); err == nil {
		t.Error("ParseCSV(short row) error = nil, want error")
	}
}

func TestToTable(t *testing.T) {
	tbl := ToTable(sampleRecords())
	if !reflect.DeepEqual(tbl.Header, Columns) {
		t.Errorf("Header = %v, want %v", tbl.Header, Columns)
	}
	want := [][]string{
		{"2024-05-01", "2000.0", "7.5", "10000", "😊", "70.0"},
		{"2024-05-02", "1800.0", "6.5", "8000", "😐", "70.2"},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Errorf("Rows = %v, want %v", tbl.Rows, want)
	}
}

func TestToTable_Empty(t *testing.T) {
	tbl := ToTable(nil)
	if len(tbl.Rows) != 0 || len(tbl.Header) != len(Columns) {
		t.Errorf("ToTable(nil) = %+v", tbl)
	}
}
