package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/hazyhaar/pricebook/pkg/catalog"
	"github.com/urfave/cli/v2"
)

func searchCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog and print matching products with their price",
		ArgsUsage: "<query...>",
		Action:    rt.search,
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results",
				Value:   catalog.DefaultSearchLimit,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
	}
}

func quoteCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Usage:     "Price a shopping list, one item per argument or per stdin line",
		ArgsUsage: "[item...]",
		Action:    rt.quote,
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the quote as JSON",
			},
		},
	}
}

func (rt *runtime) search(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("search: a query is required")
	}
	eng, err := rt.openEngine(c)
	if err != nil {
		return err
	}

	resp, err := rt.run(c, "search", func(_ context.Context, _ any) (any, error) {
		return eng.Search(query, c.Int("limit"))
	}, nil)
	if err != nil {
		return err
	}
	items := resp.([]catalog.SearchItem)

	out := c.App.Writer
	if c.Bool("json") {
		return printJSON(out, map[string]any{"items": items})
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "no matches")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\n", it.Description, formatPrice(it.Price))
	}
	return tw.Flush()
}

func (rt *runtime) quote(c *cli.Context) error {
	names := c.Args().Slice()
	if len(names) == 0 {
		var err error
		if names, err = readLines(c.App.Reader); err != nil {
			return fmt.Errorf("read items: %w", err)
		}
	}
	items := make([]catalog.QuoteItem, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			items = append(items, catalog.QuoteItem{Name: n})
		}
	}
	if len(items) == 0 {
		return fmt.Errorf("quote: no items given")
	}

	eng, err := rt.openEngine(c)
	if err != nil {
		return err
	}
	resp, err := rt.run(c, "quote", func(_ context.Context, _ any) (any, error) {
		return eng.Quote(items)
	}, nil)
	if err != nil {
		return err
	}
	res := resp.(*catalog.QuoteResult)

	if c.Bool("json") {
		return printJSON(c.App.Writer, res)
	}
	return printQuote(c.App.Writer, res)
}

func printQuote(w io.Writer, res *catalog.QuoteResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, line := range res.Items {
		switch {
		case !line.Found:
			fmt.Fprintf(tw, "%s\tnot found\t\t\n", line.InputName)
		case line.Ambiguous:
			fmt.Fprintf(tw, "%s\tambiguous\t\t\n", line.InputName)
			for _, cand := range line.Candidates {
				fmt.Fprintf(tw, "\t  %s\t%s\t(score %d)\n", cand.Description, formatPrice(cand.Price), cand.Score)
			}
		default:
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", line.InputName, *line.MatchedDescription, formatPrice(*line.Price))
		}
	}
	fmt.Fprintf(tw, "\t\t\t\nTOTAL (estimated)\t\t%s\t\n", formatPrice(res.TotalEstimated))
	return tw.Flush()
}

func readLines(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, nil
	}
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
