package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"offersearch-engine/internal/domain"
)

var searchFlags struct {
	query    string
	location string
	company  string
	source   string
	limit    int
	offset   int
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search offers in the remote store, falling back to the local cache",
	Args:  cobra.NoArgs,
	RunE:  runSearch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show offer statistics, falling back to the local cache",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources pages can be scraped from",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchFlags.query, "query", "q", "", "free text matched against title, company and description")
	f.StringVar(&searchFlags.location, "location", "", "location substring")
	f.StringVar(&searchFlags.company, "company", "", "company substring")
	f.StringVar(&searchFlags.source, "source", "", "exact source (linkedin, indeed, ...)")
	f.IntVar(&searchFlags.limit, "limit", domain.DefaultLimit, "page size")
	f.IntVar(&searchFlags.offset, "offset", 0, "records to skip")

	rootCmd.AddCommand(searchCmd, statsCmd, sourcesCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	filter := domain.Filter{
		Search:   searchFlags.query,
		Location: searchFlags.location,
		Company:  searchFlags.company,
		Limit:    searchFlags.limit,
		Offset:   searchFlags.offset,
	}
	if searchFlags.source != "" {
		src, err := domain.ParseSource(searchFlags.source)
		if err != nil {
			return err
		}
		filter.Source = src
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Search(ctx, "", filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	t := newTable(out)
	t.AppendHeader(table.Row{"Title", "Company", "Location", "Posted", "Source", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 48},
		{Number: 6, WidthMax: 60},
	})
	for _, r := range res.Records {
		t.AppendRow(table.Row{r.Title, r.Company, r.Location, r.PostedDate, r.Source, r.URL})
	}
	t.Render()

	printStatus(out, res.Degraded, res.Status)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Stats(ctx, "")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	t := newTable(out)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Offers", res.Stats.TotalJobs},
		{"Companies", res.Stats.TotalCompanies},
		{"Locations", res.Stats.TotalLocations},
	})
	sources := make([]string, 0, len(res.Stats.JobsBySource))
	for s := range res.Stats.JobsBySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	if len(sources) > 0 {
		t.AppendSeparator()
	}
	for _, s := range sources {
		t.AppendRow(table.Row{"  " + s, res.Stats.JobsBySource[s]})
	}
	t.Render()

	printStatus(out, res.Degraded, res.Status)
	return nil
}

func runSources(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"#", "Source"})
	for i, s := range a.svc.SupportedSources() {
		t.AppendRow(table.Row{i + 1, s})
	}
	t.Render()
	return nil
}

func printStatus(out io.Writer, degraded bool, status string) {
	if degraded {
		fmt.Fprintln(out, text.FgYellow.Sprint("degraded: "+status))
		return
	}
	fmt.Fprintln(out, status)
}
