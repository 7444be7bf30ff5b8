package statement

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	// headerScanLines bounds the preamble searched for a header row.
	headerScanLines = 15
	// delimitedShare is the fraction of sampled lines that must agree on a
	// delimiter count for auto detection to pick the delimited format.
	delimitedShare = 0.6
)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// Normalize converts raw statement bytes into a table of raw rows.
func Normalize(data []byte, hint Format) (Table, []LineError) {
	text := string(bytes.TrimPrefix(data, utf8BOM))

	format := hint
	if format == "" || format == FormatAuto {
		format = detectFormat(text)
	}

	switch format {
	case FormatOFX:
		return normalizeOFX(text)
	case FormatDocument:
		return normalizeDocument(text), nil
	default:
		return normalizeDelimited(text)
	}
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

// sampleLines returns up to headerScanLines non-blank lines.
func sampleLines(lines []string) []string {
	var sample []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) == headerScanLines {
			break
		}
	}
	return sample
}

func detectFormat(text string) Format {
	head := strings.ToUpper(strings.TrimSpace(text))
	if strings.HasPrefix(head, "OFXHEADER") || strings.Contains(head, "<OFX>") {
		return FormatOFX
	}
	if _, ok := sniffDelimiter(sampleLines(splitLines(text))); ok {
		return FormatDelimited
	}
	return FormatDocument
}

// sniffDelimiter picks the candidate whose per-line count is most consistent
// across the sample. Earlier candidates win ties.
func sniffDelimiter(sample []string) (rune, bool) {
	if len(sample) == 0 {
		return ',', false
	}

	best, bestLines := ',', 0
	for _, delim := range delimiterCandidates {
		freq := map[int]int{}
		for _, line := range sample {
			if n := countUnquoted(line, delim); n > 0 {
				freq[n]++
			}
		}
		agreeing := 0
		for _, lines := range freq {
			if lines > agreeing {
				agreeing = lines
			}
		}
		if agreeing > bestLines {
			best, bestLines = delim, agreeing
		}
	}

	need := int(float64(len(sample))*delimitedShare + 0.5)
	if need < 1 {
		need = 1
	}
	return best, bestLines >= need
}

func countUnquoted(line string, delim rune) int {
	n, quoted := 0, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == delim && !quoted:
			n++
		}
	}
	return n
}

func parseLine(line string, delim rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = delim != '\t'

	rec, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, parseErr.Err
		}
		return nil, err
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec, nil
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// isHeaderRow reports whether cells look like a column header: at least two
// labels, none of them data, one of them naming the date.
func isHeaderRow(cells []string) bool {
	labels, hasDate := 0, false
	for _, c := range cells {
		if c == "" {
			continue
		}
		if _, ok := ParseDate(c); ok {
			return false
		}
		if looksNumeric(c) {
			return false
		}
		labels++
		if isDateHeader(c) {
			hasDate = true
		}
	}
	return labels >= 2 && hasDate
}

func normalizeDelimited(text string) (Table, []LineError) {
	lines := splitLines(text)
	delim, _ := sniffDelimiter(sampleLines(lines))
	table := Table{Format: FormatDelimited}

	var errs []LineError
	headerIdx, dataStart := -1, -1
	firstLabeled := -1
	scanned := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if scanned == headerScanLines {
			break
		}
		scanned++

		cells, err := parseLine(line, delim)
		if err != nil {
			continue
		}
		if firstLabeled < 0 && len(cells) >= 2 {
			firstLabeled = i
		}
		if isHeaderRow(cells) {
			headerIdx = i
			break
		}
		if len(cells) >= 2 {
			if _, ok := ParseDate(cells[0]); ok {
				table.Positional = true
				dataStart = i
				break
			}
		}
	}
	if headerIdx < 0 && !table.Positional {
		headerIdx = firstLabeled
	}
	if headerIdx < 0 && dataStart < 0 {
		return table, errs
	}

	if headerIdx >= 0 {
		cells, _ := parseLine(lines[headerIdx], delim)
		table.Headers = uniqueLabels(cells)
		dataStart = headerIdx + 1
	}

	for i := dataStart; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo := i + 1

		cells, err := parseLine(line, delim)
		if err != nil {
			errs = append(errs, LineError{Line: lineNo, Reason: err.Error()})
			continue
		}
		if allEmpty(cells) {
			continue
		}

		if table.Headers == nil {
			table.Headers = positionalLabels(len(cells))
		}
		cells, err = fitWidth(cells, len(table.Headers))
		if err != nil {
			errs = append(errs, LineError{Line: lineNo, Reason: err.Error()})
			continue
		}

		fields := make(map[string]string, len(cells))
		for j, label := range table.Headers {
			fields[label] = cells[j]
		}
		table.Rows = append(table.Rows, Row{Line: lineNo, Fields: fields})
	}
	return table, errs
}

// fitWidth drops trailing empty cells beyond width and pads short rows.
func fitWidth(cells []string, width int) ([]string, error) {
	for len(cells) > width && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	if len(cells) > width {
		return nil, fmt.Errorf("expected %d fields, got %d", width, len(cells))
	}
	for len(cells) < width {
		cells = append(cells, "")
	}
	return cells, nil
}

func positionalLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	return labels
}

// uniqueLabels fills blank labels with their position and suffixes repeats.
func uniqueLabels(cells []string) []string {
	seen := map[string]int{}
	labels := make([]string, len(cells))
	for i, c := range cells {
		label := c
		if label == "" {
			label = strconv.Itoa(i)
		}
		seen[strings.ToLower(label)]++
		if n := seen[strings.ToLower(label)]; n > 1 {
			label = fmt.Sprintf("%s_%d", label, n)
		}
		labels[i] = label
	}
	return labels
}
