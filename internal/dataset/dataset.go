// Package dataset loads raw measurement samples and scenario files.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadValues reads numeric values from the provided file path.
func LoadValues(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only sample file.
			_ = cerr
		}
	}()
	return ParseValues(file)
}

// ParseValues reads numbers separated by newlines, commas, semicolons or
// whitespace. Blank lines and lines starting with '#' are skipped, as is a
// non-numeric first line (a CSV header).
func ParseValues(r io.Reader) ([]float64, error) {
	var values []float64
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, isSeparator)
		parsed := make([]float64, 0, len(fields))
		var parseErr error
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				parseErr = fmt.Errorf("line %d: invalid number %q", lineNo, field)
				break
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				parseErr = fmt.Errorf("line %d: non-finite value %q", lineNo, field)
				break
			}
			parsed = append(parsed, v)
		}
		if parseErr != nil {
			if len(values) == 0 && isHeader(fields) {
				continue
			}
			return nil, parseErr
		}
		values = append(values, parsed...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("sample is empty")
	}
	return values, nil
}

func isSeparator(r rune) bool {
	return r == ',' || r == ';' || r == ' ' || r == '\t'
}

// isHeader reports whether every field is non-numeric text.
func isHeader(fields []string) bool {
	for _, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err == nil {
			return false
		}
	}
	return len(fields) > 0
}
