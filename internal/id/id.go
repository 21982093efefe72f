package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateFormat = "20060102"

// FormatRecordID returns a record ID like "BG-20250103-001": the source tag,
// the transaction date and the 1-based arrival position among that source's
// rows on that date.
func FormatRecordID(source string, date time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", strings.ToUpper(source), date.Format(dateFormat), seq)
}

// ParseRecordID parses "BG-20250103-001" into source, date, seq.
func ParseRecordID(id string) (source string, date time.Time, seq int, err error) {
	// Source tags may contain dashes; date and seq are the last two parts.
	last := strings.LastIndex(id, "-")
	if last <= 0 {
		return "", time.Time{}, 0, fmt.Errorf("invalid record ID format: %q", id)
	}
	mid := strings.LastIndex(id[:last], "-")
	if mid <= 0 {
		return "", time.Time{}, 0, fmt.Errorf("invalid record ID format: %q", id)
	}

	date, err = time.Parse(dateFormat, id[mid+1:last])
	if err != nil {
		return "", time.Time{}, 0, fmt.Errorf("invalid date in record ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(id[last+1:])
	if err != nil {
		return "", time.Time{}, 0, fmt.Errorf("invalid sequence in record ID %q: %w", id, err)
	}
	if seq < 1 {
		return "", time.Time{}, 0, fmt.Errorf("invalid sequence in record ID %q: must be positive", id)
	}

	return id[:mid], date, seq, nil
}

// Sequencer hands out per-(source, date) sequence numbers in call order.
type Sequencer struct {
	next map[string]int
}

// NewSequencer creates an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{next: make(map[string]int)}
}

// Next returns the record ID for the next row of source on date.
func (s *Sequencer) Next(source string, date time.Time) string {
	key := strings.ToUpper(source) + "|" + date.Format(dateFormat)
	s.next[key]++
	return FormatRecordID(source, date, s.next[key])
}
