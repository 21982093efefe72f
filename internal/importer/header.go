package importer

import (
	"strings"

	"github.com/cleared-dev/ledgerprep/internal/workbook"
)

// maxHeaderScan bounds the rows searched for a header.
const maxHeaderScan = 50

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

// fold lowercases, trims and strips Spanish accents.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(accentFolder.Replace(s)))
}

// columns maps folded header names to their positions in a header row.
type columns struct {
	names []string
}

func headerColumns(s *workbook.Sheet, row int) columns {
	var c columns
	if row >= 0 && row < len(s.Rows) {
		for _, cell := range s.Rows[row] {
			c.names = append(c.names, fold(cell))
		}
	}
	return c
}

// find returns the first column whose name contains any token, skipping
// names that contain an excluded token. -1 when absent.
func (c columns) find(tokens []string, exclude ...string) int {
	for i, name := range c.names {
		if name == "" || containsAny(name, exclude) {
			continue
		}
		if containsAny(name, tokens) {
			return i
		}
	}
	return -1
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// isHeader reports whether row has a date column plus at least one of the
// companion tokens in another column.
func isHeader(s *workbook.Sheet, row int, dateTokens, companions []string) bool {
	c := headerColumns(s, row)
	date := c.find(dateTokens)
	if date < 0 {
		return false
	}
	for i, name := range c.names {
		if i != date && name != "" && containsAny(name, companions) {
			return true
		}
	}
	return false
}

// locateHeader returns preferred when it is a header row, otherwise the
// first header row within maxHeaderScan, or -1.
func locateHeader(s *workbook.Sheet, preferred int, dateTokens, companions []string) int {
	if preferred >= 0 && isHeader(s, preferred, dateTokens, companions) {
		return preferred
	}
	for i := 0; i < len(s.Rows) && i < maxHeaderScan; i++ {
		if isHeader(s, i, dateTokens, companions) {
			return i
		}
	}
	return -1
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
