package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"offersearch-engine/internal/logger"
	"offersearch-engine/internal/scrape/page"
	"offersearch-engine/internal/scrape/util"
)

var scrapeFlags struct {
	pageURL string
	fetch   bool
	workers int
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--url PAGE_URL] SNAPSHOT... | scrape --fetch URL...",
	Short: "Extract offers from saved page snapshots (or fetched pages) into the local cache",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeFlags.pageURL, "url", "", "URL the snapshots were saved from (selects the source)")
	scrapeCmd.Flags().BoolVar(&scrapeFlags.fetch, "fetch", false, "treat arguments as URLs and download them")
	scrapeCmd.Flags().IntVar(&scrapeFlags.workers, "workers", 4, "snapshots loaded in parallel")
	rootCmd.AddCommand(scrapeCmd)
}

type snapshot struct {
	origin  string
	pageURL string
	doc     *page.Document
}

func runScrape(cmd *cobra.Command, args []string) error {
	if !scrapeFlags.fetch && scrapeFlags.pageURL == "" {
		return errors.New("--url is required for saved snapshots")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, appOptions{exclusive: true})
	if err != nil {
		return err
	}
	defer a.Close()

	snaps, err := loadSnapshots(ctx, a, args)
	if err != nil {
		return err
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Input", "Source", "Extracted", "New", "Updated", "Cached", "Remote"})

	var failed int
	var statuses []string
	for _, s := range snaps {
		res, err := a.svc.Scrape(ctx, "", s.pageURL, s.doc)
		statuses = append(statuses, res.Status)
		if err != nil {
			failed++
			a.log.Warn("scrape cycle failed", logger.String("input", s.origin), logger.Err(err))
			t.AppendRow(table.Row{s.origin, "-", 0, 0, 0, a.cache.Len(), "-"})
			continue
		}
		remote := "kept locally"
		if res.Submitted {
			remote = fmt.Sprintf("%d new / %d dup", res.Remote.Inserted, res.Remote.Duplicates)
		}
		t.AppendRow(table.Row{s.origin, res.Source, len(res.Records), res.Merge.Inserted, res.Merge.Duplicates, a.cache.Len(), remote})
	}
	t.Render()

	for _, st := range statuses {
		fmt.Fprintln(cmd.OutOrStdout(), st)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(snaps))
	}
	return nil
}

// loadSnapshots parses (or downloads) every input concurrently; the cycles
// that follow run one at a time in argument order.
func loadSnapshots(ctx context.Context, a *app, args []string) ([]snapshot, error) {
	out := make([]snapshot, len(args))

	var fetcher *page.Fetcher
	if scrapeFlags.fetch {
		fetcher = page.NewFetcher(
			util.NewHostLimiter(a.cfg.Fetch.RequestsPerSecond, a.cfg.Fetch.Burst),
			time.Duration(a.cfg.Fetch.TimeoutSeconds)*time.Second,
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	if scrapeFlags.workers > 0 {
		g.SetLimit(scrapeFlags.workers)
	}
	for i, arg := range args {
		g.Go(func() error {
			var (
				doc *page.Document
				err error
			)
			pageURL := scrapeFlags.pageURL
			if fetcher != nil {
				pageURL = arg
				doc, err = fetcher.Fetch(gctx, arg)
			} else {
				doc, err = page.LoadFile(arg, pageURL)
			}
			if err != nil {
				return fmt.Errorf("load %s: %w", arg, err)
			}
			out[i] = snapshot{origin: arg, pageURL: pageURL, doc: doc}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
