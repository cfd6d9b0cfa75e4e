package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/hashsharing/filter"
	"github.com/s0up4200/hashsharing/hashapi"
)

var (
	since      time.Duration
	fromTS     int64
	filterExpr string
	preset     string
	maxPages   int
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch fingerprint updates for a time window",
	Long: `Fetch every fingerprint update published since a point in time, following
the server's paging cursor. Updates can be narrowed with a filter expression
or a preset from the config. The highest timestamp seen is logged as the
checkpoint to pass to --from on the next run.

Filter expressions can use the fields ID, MemberID, EntryType, Deleted,
Classification, HasClassification, Fingerprints and Algorithms, and the
helpers hasFingerprint(alg), fingerprint(alg), classifiedAs(name), isImage()
and isVideo(). Case-insensitive string matching is available through
containsFold(s, sub), hasPrefixFold(s, prefix) and hasSuffixFold(s, suffix);
the operators contains, startsWith and endsWith match case-sensitively.`,
	Example: `  hashsharing fetch --since 6h
  hashsharing fetch --from 1700000000 --filter 'isVideo() and not Deleted'
  hashsharing fetch --preset md5-only -o json`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().DurationVar(&since, "since", 0, "fetch updates newer than this duration (default fetch.since)")
	fetchCmd.Flags().Int64Var(&fromTS, "from", 0, "fetch updates newer than this unix timestamp")
	fetchCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	fetchCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	fetchCmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 means no limit)")
	fetchCmd.MarkFlagsMutuallyExclusive("since", "from")
	fetchCmd.MarkFlagsMutuallyExclusive("filter", "preset")
}

func runFetch(cmd *cobra.Command, args []string) error {
	f, err := resolveFilter()
	if err != nil {
		return err
	}

	start := startTimestamp(cmd, time.Now())

	client, err := newClient()
	if err != nil {
		return err
	}

	logger.Info().
		Str("from", hashapi.FormatTimestamp(start)).
		Str("url", client.BaseURL()).
		Msg("Fetching updates")

	var (
		updates    []hashapi.EntryUpdate
		checkpoint = start
		pages      int
		total      int
	)
	for page, err := range client.GetEntriesIter(cmd.Context(), start) {
		if err != nil {
			return err
		}
		pages++
		total += len(page.Updates)
		checkpoint = max(checkpoint, page.MaxTimestamp)
		updates = append(updates, filter.Apply(f, page.Updates)...)

		if maxPages > 0 && pages >= maxPages {
			if page.HasMore() {
				logger.Warn().Int("pages", pages).Msg("Page limit reached, more updates are available")
			}
			break
		}
	}

	logger.Info().
		Int("pages", pages).
		Int("fetched", total).
		Int("matched", len(updates)).
		Int64("checkpoint", checkpoint).
		Msg("Fetch complete")

	return renderUpdates(os.Stdout, cfg.Fetch.Output, updates)
}

// startTimestamp picks the window start: --from, then --since, then fetch.since
func startTimestamp(cmd *cobra.Command, now time.Time) int64 {
	if cmd.Flags().Changed("from") {
		return fromTS
	}
	window := cfg.Fetch.Since
	if cmd.Flags().Changed("since") {
		window = since
	}
	return now.Add(-window).Unix()
}

// resolveFilter determines the filter to use. Priority: command line filter >
// preset > configured default. A nil filter keeps everything.
func resolveFilter() (filter.Filter, error) {
	manager := filter.NewManager()
	if err := manager.RegisterFilters(cfg.Filter.Presets); err != nil {
		return nil, fmt.Errorf("invalid filter preset: %w", err)
	}

	switch {
	case filterExpr != "":
		f, err := manager.Compile(filterExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		return f, nil
	case preset != "":
		return manager.GetFilter(preset)
	case cfg.Filter.Default != "":
		return manager.GetFilter(cfg.Filter.Default)
	}

	return nil, nil
}
