package catalog

import "strings"

// splitFields cuts one delimited line into fields. A double quote toggles
// quoted mode, a doubled quote inside a quoted field is a literal quote, and
// the delimiter only separates fields outside quotes. Unbalanced quotes are
// tolerated: the rest of the line becomes part of the last field.
func splitFields(line string, delim rune) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == delim && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	return append(fields, cur.String())
}
