package analytics

import "strings"

// ParseRows converts the executor's pipe-delimited text into structured rows,
// zipping the header line with each value line. Lines whose field count does
// not match the header are dropped. Input with fewer than two lines yields nil:
// a bare header carries no rows.
func ParseRows(raw string) []map[string]string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) < 2 {
		return nil
	}

	header := strings.Split(lines[0], "|")
	rows := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := strings.Split(line, "|")
		if len(fields) != len(header) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[strings.TrimSpace(col)] = strings.TrimSpace(fields[i])
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return rows
}
