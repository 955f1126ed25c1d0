package catalog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var (
	// ErrEmpty is returned when the source has no header line.
	ErrEmpty = errors.New("catalog source is empty")
	// ErrHeader is returned when neither delimiter yields a header with
	// both a description and a list price column.
	ErrHeader = errors.New("catalog header lacks description or list price column")
)

// Delimiters tried in order when reading a catalog.
var delimiters = []rune{',', ';'}

// Default header names, compared after trimming and lowercasing.
var (
	DefaultDescriptionColumns = []string{"description", "descripcion", "productos_descripcion"}
	DefaultPriceColumns       = []string{"list price", "list_price", "precio_lista", "productos_precio_lista"}
)

// LoadOptions tunes header recognition and logging. The zero value is usable.
type LoadOptions struct {
	// Extra header names accepted on top of the defaults.
	DescriptionColumns []string
	PriceColumns       []string
	Logger             *slog.Logger
}

func (o *LoadOptions) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *LoadOptions) columns() (desc, price []string) {
	desc = append(desc, DefaultDescriptionColumns...)
	price = append(price, DefaultPriceColumns...)
	if o != nil {
		desc = append(desc, o.DescriptionColumns...)
		price = append(price, o.PriceColumns...)
	}
	return desc, price
}

// Load builds an index from raw catalog lines, the first being the header.
// Bad rows are logged and skipped; only a missing or unrecognized header
// fails the whole load.
func Load(lines []string, opts *LoadOptions) (*Index, error) {
	if len(lines) == 0 {
		return nil, ErrEmpty
	}
	header := strings.TrimPrefix(lines[0], "\ufeff")

	for _, delim := range delimiters {
		ix, ok := parseWithDelimiter(header, lines[1:], delim, opts)
		if ok {
			return ix, nil
		}
	}
	return nil, ErrHeader
}

// LoadReader reads r and passes its lines to Load. A line ends at "\n",
// "\r" or "\r\n" and has no length limit.
func LoadReader(r io.Reader, opts *LoadOptions) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(splitLines(string(data)), opts)
}

// splitLines breaks text into lines without their terminators. A trailing
// terminator does not start an extra empty line.
func splitLines(text string) []string {
	var lines []string
	for text != "" {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i])
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			i++
		}
		text = text[i+1:]
	}
	return lines
}

// parseWithDelimiter returns ok=false only when the header cannot be mapped.
func parseWithDelimiter(headerLine string, rows []string, delim rune, opts *LoadOptions) (*Index, bool) {
	header := splitFields(headerLine, delim)
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	descNames, priceNames := opts.columns()
	descIdx, okDesc := findColumn(cols, descNames)
	priceIdx, okPrice := findColumn(cols, priceNames)
	if !okDesc || !okPrice {
		return nil, false
	}

	logger := opts.logger()
	need := max(descIdx, priceIdx)
	ix := newIndex()
	var skipped int

	for i, line := range rows {
		row := i + 2 // 1-based, after the header
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitFields(line, delim)
		if len(fields) <= need {
			skipped++
			logger.Debug("skipping catalog row: missing columns", "row", row, "fields", len(fields))
			continue
		}

		description := strings.TrimSpace(fields[descIdx])
		if description == "" {
			skipped++
			continue
		}

		price, err := ParsePrice(fields[priceIdx])
		if err != nil {
			skipped++
			logger.Warn("skipping catalog row: invalid price", "row", row, "price", fields[priceIdx])
			continue
		}

		normalized := Normalize(description)
		if normalized == "" {
			skipped++
			continue
		}

		ix.add(Entry{
			Description: description,
			Normalized:  normalized,
			Price:       price,
			Tokens:      Tokenize(normalized),
		})
	}

	if skipped > 0 {
		logger.Warn("catalog rows skipped", "skipped", skipped, "delimiter", string(delim))
	}
	return ix, true
}

// findColumn returns the index of the first name present in the header.
func findColumn(cols map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := cols[strings.ToLower(strings.TrimSpace(n))]; ok {
			return i, true
		}
	}
	return 0, false
}
