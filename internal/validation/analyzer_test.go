package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestAnalyzeCSVDetectsDelimiter(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		delimiter rune
		separator string
	}{
		{
			"comma delimited",
			"name,price,qty\nWidget,10.50,3\nGadget,7.25,1\n",
			',', ".",
		},
		{
			"semicolon delimited",
			"name;price;qty\nWidget;10,50;3\nGadget;7,25;1\n",
			';', ",",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			analysis, err := AnalyzeCSV(strings.NewReader(test.input))
			if err != nil {
				t.Fatalf("AnalyzeCSV returned error: %v", err)
			}
			if analysis.Delimiter != test.delimiter {
				t.Errorf("Delimiter = %q, expected %q", analysis.Delimiter, test.delimiter)
			}
			if analysis.NumericSeparator != test.separator {
				t.Errorf("NumericSeparator = %q, expected %q", analysis.NumericSeparator, test.separator)
			}
			if !analysis.HasHeader {
				t.Error("expected header to be detected")
			}
			if analysis.Columns != 3 {
				t.Errorf("Columns = %d, expected 3", analysis.Columns)
			}
		})
	}
}

func TestAnalyzeCSVEmptyFile(t *testing.T) {
	if _, err := AnalyzeCSV(strings.NewReader("")); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput for empty file, got %v", err)
	}
}

func TestNormalizeNumericValue(t *testing.T) {
	tests := []struct {
		value     string
		separator string
		expected  string
	}{
		{"10.50", ".", "10.50"},
		{"10,50", ",", "10.50"},
		{" 7,25 ", ",", "7.25"},
		{`"3"`, ".", "3"},
		{"", ",", ""},
	}

	for _, test := range tests {
		got := NormalizeNumericValue(test.value, test.separator)
		if got != test.expected {
			t.Errorf("NormalizeNumericValue(%q, %q) = %q, expected %q",
				test.value, test.separator, got, test.expected)
		}
	}
}

func TestParseCSVWithDetectedDelimiter(t *testing.T) {
	input := "name;price\nWidget;10,50\nGadget;7\n"

	rows, analysis, err := ParseCSVWithDetectedDelimiter(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSVWithDetectedDelimiter returned error: %v", err)
	}

	if analysis.Delimiter != ';' {
		t.Errorf("Delimiter = %q, expected ';'", analysis.Delimiter)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, expected 3", len(rows))
	}
	if rows[1][1] != "10,50" {
		t.Errorf("rows[1][1] = %q, expected raw value \"10,50\"", rows[1][1])
	}
}
