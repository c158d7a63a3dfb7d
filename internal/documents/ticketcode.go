package documents

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Ticket codes look like TKT-20260301-0042. The sequence is zero-padded to
// four digits so the lexicographically highest code for a date prefix is
// also the numerically highest; sequences past 9999 keep growing in width
// and stay sortable.
const ticketDateLayout = "20060102"

func ticketPrefix(date time.Time) string {
	return "TKT-" + date.Format(ticketDateLayout) + "-"
}

func formatTicketCode(date time.Time, seq int64) string {
	return fmt.Sprintf("%s%04d", ticketPrefix(date), seq)
}

// ticketSequence extracts the numeric suffix of a ticket code. Malformed
// or empty codes yield zero, so the next generated sequence starts at one.
func ticketSequence(code string) int64 {
	idx := strings.LastIndex(code, "-")
	if idx < 0 || idx == len(code)-1 {
		return 0
	}
	seq, err := strconv.ParseInt(code[idx+1:], 10, 64)
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}
