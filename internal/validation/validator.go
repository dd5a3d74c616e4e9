package validation

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Error codes recorded in validation results and error reports
const (
	CodeFileUnreadable         = "FileUnreadable"
	CodeEmptyFile              = "EmptyFile"
	CodeEmptyHeader            = "EmptyHeader"
	CodeDuplicateColumns       = "DuplicateColumns"
	CodeMissingRequiredColumns = "MissingRequiredColumns"
	CodeColumnCountMismatch    = "ColumnCountMismatch"
	CodeMissingNameColumn      = "MissingNameColumn"
	CodeInvalidDataType        = "InvalidDataType"
	CodeInvalidBooleanValue    = "InvalidBooleanValue"
)

const maxSampleRows = 5

// RowError describes one invalid cell or row. Row is the 1-based data row
// number; header and structural errors use row 0.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the structured outcome of validating an upload. The file
// is valid only when there are no structural errors and zero row errors; a
// partially good file is still rejected because the import does not support
// loading the valid subset.
type ValidationResult struct {
	IsValid       bool       `json:"is_valid"`
	ProcessedRows int        `json:"processed_rows"`
	ValidRows     int        `json:"valid_rows"`
	Headers       []string   `json:"headers"`
	SampleRows    [][]string `json:"sample_rows"`
	Messages      []string   `json:"messages"`
	ErrorDetails  []RowError `json:"error_details"`
}

// ErrorReportRows renders the error details as a headered table for the
// downloadable report.
func (r *ValidationResult) ErrorReportRows() [][]string {
	rows := [][]string{{"row", "column", "code", "message"}}
	for _, detail := range r.ErrorDetails {
		rows = append(rows, []string{
			strconv.Itoa(detail.Row), detail.Column, detail.Code, detail.Message,
		})
	}
	return rows
}

// FileValidator checks an uploaded tabular file's structure and per-row data
// before it is sent to the generation service.
type FileValidator struct {
	requiredColumns []string
	numericColumns  map[string]bool
	booleanColumns  map[string]bool
	booleanValues   map[string]bool
}

// NewFileValidator creates a validator with the standard column rules
func NewFileValidator() *FileValidator {
	return &FileValidator{
		requiredColumns: []string{"name"},
		numericColumns: map[string]bool{
			"price": true, "special_price": true, "weight": true, "qty": true,
		},
		booleanColumns: map[string]bool{"status": true},
		booleanValues: map[string]bool{
			"enabled": true, "disabled": true, "1": true, "0": true,
			"yes": true, "no": true, "true": true, "false": true,
		},
	}
}

// Validate parses the file (CSV or XLSX, by extension) and runs all structural
// and per-row checks. Validation failures are reported in the result, never as
// an error; the error return covers only I/O-level failures reading the input.
func (v *FileValidator) Validate(reader io.Reader, filename string) (*ValidationResult, error) {
	result := &ValidationResult{}

	var rows [][]string
	var analysis *CSVAnalysisResult
	var err error

	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		rows, err = rowsFromXLSX(reader)
	} else {
		rows, analysis, err = ParseCSVWithDetectedDelimiter(reader)
	}
	if errors.Is(err, ErrEmptyInput) {
		result.addStructural(CodeEmptyFile, "file contains no rows")
		return result, nil
	}
	if err != nil {
		result.addStructural(CodeFileUnreadable, fmt.Sprintf("file could not be parsed: %v", err))
		return result, nil
	}

	if len(rows) == 0 {
		result.addStructural(CodeEmptyFile, "file contains no rows")
		return result, nil
	}

	headers, headerErrs := v.checkHeaders(rows[0])
	result.Headers = headers
	result.ProcessedRows = len(rows) - 1

	if len(headerErrs) > 0 {
		result.ErrorDetails = append(result.ErrorDetails, headerErrs...)
		for _, e := range headerErrs {
			result.Messages = append(result.Messages, e.Code+": "+e.Message)
		}
		return result, nil
	}

	if result.ProcessedRows == 0 {
		result.addStructural(CodeEmptyFile, "file has a header but no data rows")
		return result, nil
	}

	numericSeparator := "."
	if analysis != nil {
		numericSeparator = analysis.NumericSeparator
	}

	for i, row := range rows[1:] {
		rowNum := i + 1 // data rows are numbered from 1
		rowErrs := v.checkRow(row, headers, rowNum, numericSeparator)
		if len(rowErrs) == 0 {
			result.ValidRows++
			if len(result.SampleRows) < maxSampleRows {
				result.SampleRows = append(result.SampleRows, row)
			}
			continue
		}
		result.ErrorDetails = append(result.ErrorDetails, rowErrs...)
	}

	result.IsValid = len(result.ErrorDetails) == 0
	if result.IsValid {
		result.Messages = append(result.Messages,
			fmt.Sprintf("all %d rows passed validation", result.ProcessedRows))
	} else {
		result.Messages = append(result.Messages,
			fmt.Sprintf("%d of %d rows failed validation", result.ProcessedRows-result.ValidRows, result.ProcessedRows))
	}

	return result, nil
}

func (r *ValidationResult) addStructural(code, message string) {
	r.ErrorDetails = append(r.ErrorDetails, RowError{Row: 0, Code: code, Message: message})
	r.Messages = append(r.Messages, code+": "+message)
}

// checkHeaders normalizes the header row and runs the fail-fast structure
// checks: empty header, duplicate column names, missing mandatory columns.
func (v *FileValidator) checkHeaders(headerRow []string) ([]string, []RowError) {
	headers := make([]string, len(headerRow))
	empty := true
	for i, h := range headerRow {
		h = strings.ToLower(strings.TrimSpace(h))
		h = strings.Trim(h, `"'`)
		headers[i] = h
		if h != "" {
			empty = false
		}
	}

	if len(headers) == 0 || empty {
		return headers, []RowError{{Row: 0, Code: CodeEmptyHeader, Message: "header row is empty"}}
	}

	var errs []RowError

	seen := map[string]bool{}
	for _, h := range headers {
		if h == "" {
			continue
		}
		if seen[h] {
			errs = append(errs, RowError{
				Row: 0, Column: h, Code: CodeDuplicateColumns,
				Message: fmt.Sprintf("column %q appears more than once", h),
			})
		}
		seen[h] = true
	}

	for _, required := range v.requiredColumns {
		if !seen[required] {
			errs = append(errs, RowError{
				Row: 0, Column: required, Code: CodeMissingRequiredColumns,
				Message: fmt.Sprintf("required column %q not found", required),
			})
		}
	}

	return headers, errs
}

// checkRow validates a single data row against the header
func (v *FileValidator) checkRow(row []string, headers []string, rowNum int, numericSeparator string) []RowError {
	if len(row) != len(headers) {
		return []RowError{{
			Row: rowNum, Code: CodeColumnCountMismatch,
			Message: fmt.Sprintf("row has %d columns, header has %d", len(row), len(headers)),
		}}
	}

	var errs []RowError

	for i, header := range headers {
		value := strings.TrimSpace(row[i])
		value = strings.Trim(value, `"'`)

		if header == "name" {
			if value == "" {
				errs = append(errs, RowError{
					Row: rowNum, Column: header, Code: CodeMissingNameColumn,
					Message: "product name is empty",
				})
			}
			continue
		}

		if value == "" {
			continue
		}

		if v.numericColumns[header] {
			normalized := NormalizeNumericValue(value, numericSeparator)
			if _, err := strconv.ParseFloat(normalized, 64); err != nil {
				errs = append(errs, RowError{
					Row: rowNum, Column: header, Code: CodeInvalidDataType,
					Message: fmt.Sprintf("value %q is not numeric", value),
				})
			}
			continue
		}

		if v.booleanColumns[header] {
			if !v.booleanValues[strings.ToLower(value)] {
				errs = append(errs, RowError{
					Row: rowNum, Column: header, Code: CodeInvalidBooleanValue,
					Message: fmt.Sprintf("value %q is not a recognized status", value),
				})
			}
		}
	}

	return errs
}

// rowsFromXLSX reads the first sheet of an XLSX workbook
func rowsFromXLSX(reader io.Reader) ([][]string, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	// excelize trims trailing empty cells; pad data rows back out to the
	// header width so column counting behaves like CSV.
	if len(rows) > 0 {
		width := len(rows[0])
		for i := 1; i < len(rows); i++ {
			for len(rows[i]) < width {
				rows[i] = append(rows[i], "")
			}
		}
	}
	return rows, nil
}
