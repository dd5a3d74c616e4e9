package validation

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrEmptyInput reports an input with no non-blank lines; callers distinguish
// it from parse failures.
var ErrEmptyInput = errors.New("file contains no data")

// CSVAnalysisResult contains the detected dialect of an input file
type CSVAnalysisResult struct {
	Delimiter           rune    `json:"delimiter"`         // ',' or ';'
	NumericSeparator    string  `json:"numeric_separator"` // '.' or ','
	HasHeader           bool    `json:"has_header"`
	Columns             int     `json:"columns"`
	SampleRows          int     `json:"sample_rows"`
	DelimiterConfidence float64 `json:"delimiter_confidence"` // 0.0 to 1.0
}

// AnalyzeCSV inspects the first lines of a CSV file to detect the delimiter
// and numeric format before parsing.
func AnalyzeCSV(reader io.Reader) (*CSVAnalysisResult, error) {
	scanner := bufio.NewScanner(reader)
	var lines []string
	maxLines := 10

	for i := 0; i < maxLines && scanner.Scan(); i++ {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	delimiter, confidence := detectDelimiter(lines)

	// Semicolon-delimited files almost always pair with comma decimals
	numericSeparator := "."
	if delimiter == ';' {
		numericSeparator = ","
	}

	return &CSVAnalysisResult{
		Delimiter:           delimiter,
		NumericSeparator:    numericSeparator,
		HasHeader:           looksLikeHeader(lines, delimiter),
		Columns:             len(strings.Split(lines[0], string(delimiter))),
		SampleRows:          len(lines),
		DelimiterConfidence: confidence,
	}, nil
}

// detectDelimiter scores ',' and ';' by column-count consistency across lines
func detectDelimiter(lines []string) (rune, float64) {
	if len(lines) == 0 {
		return ',', 0.0
	}

	bestDelimiter := ','
	bestScore := delimiterConsistency(lines, ',')

	if score := delimiterConsistency(lines, ';'); score > bestScore {
		bestDelimiter = ';'
		bestScore = score
	}

	return bestDelimiter, bestScore
}

func delimiterConsistency(lines []string, delimiter rune) float64 {
	if len(lines) < 2 {
		return 0.0
	}

	delimiterStr := string(delimiter)
	firstLineColumns := len(strings.Split(lines[0], delimiterStr))
	if firstLineColumns < 2 {
		return 0.0
	}

	consistentLines := 0
	for _, line := range lines {
		columns := len(strings.Split(line, delimiterStr))
		// Tolerate one column of drift for rows with empty trailing fields
		if columns >= firstLineColumns-1 && columns <= firstLineColumns+1 {
			consistentLines++
		}
	}

	consistency := float64(consistentLines) / float64(len(lines))

	// Favor delimiters that produce more columns
	columnBonus := float64(firstLineColumns) * 0.1
	if columnBonus > 0.3 {
		columnBonus = 0.3
	}

	return consistency + columnBonus
}

var numericFieldPattern = regexp.MustCompile(`^\d+([.,]\d+)*$`)

// looksLikeHeader guesses whether the first line is a header row by checking
// for typical column names and an absence of numeric fields.
func looksLikeHeader(lines []string, delimiter rune) bool {
	if len(lines) < 2 {
		return false
	}

	headerWords := []string{
		"name", "price", "special_price", "description", "short_description",
		"sku", "upc", "barcode", "weight", "qty", "quantity", "status",
		"keywords", "meta_title", "meta_description", "category", "brand",
	}

	firstLine := strings.Split(lines[0], string(delimiter))
	headerCount := 0

	for _, field := range firstLine {
		field = strings.ToLower(strings.TrimSpace(field))
		field = strings.Trim(field, `"'`)

		for _, headerWord := range headerWords {
			if strings.Contains(field, headerWord) {
				headerCount++
				break
			}
		}

		if numericFieldPattern.MatchString(field) {
			headerCount--
		}
	}

	return float64(headerCount)/float64(len(firstLine)) > 0.3
}

// NormalizeNumericValue converts a numeric string to dot-decimal form based on
// the detected numeric separator.
func NormalizeNumericValue(value string, numericSeparator string) string {
	value = strings.TrimSpace(value)
	value = strings.Trim(value, `"'`)

	if value == "" {
		return value
	}

	if numericSeparator == "," {
		// "10,50" -> "10.50"
		value = strings.ReplaceAll(value, ",", ".")
	}

	return value
}

// ParseCSVWithDetectedDelimiter analyzes and parses a CSV in one pass
func ParseCSVWithDetectedDelimiter(reader io.Reader) ([][]string, *CSVAnalysisResult, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read content: %w", err)
	}

	analysis, err := AnalyzeCSV(strings.NewReader(string(content)))
	if err != nil {
		return nil, nil, err
	}

	csvReader := csv.NewReader(strings.NewReader(string(content)))
	csvReader.Comma = analysis.Delimiter
	csvReader.FieldsPerRecord = -1 // column-count mismatches are reported per row

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, analysis, fmt.Errorf("failed to parse CSV: %w", err)
	}

	return records, analysis, nil
}
