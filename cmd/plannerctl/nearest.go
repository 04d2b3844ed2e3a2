package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/spf13/cobra"

	"github.com/tardus/office-planner/internal/adapter/googlemaps"
	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
	"github.com/tardus/office-planner/internal/planner"
)

var nearestCmd = &cobra.Command{
	Use:   "nearest [address]",
	Short: "Resolve an address to the nearest office",
	Long: "Resolves an address to the nearest office by geocoding and great-circle distance. " +
		"With --interactive, addresses are read line by line from stdin and debounced like form input; " +
		"only the latest address is reported.",
	Args: cobra.MaximumNArgs(1),
	RunE: runNearest,
}

var (
	nearestInteractive bool
	nearestDebounce    time.Duration
	nearestOffline     bool
)

func init() {
	nearestCmd.Flags().BoolVarP(&nearestInteractive, "interactive", "i", false, "read addresses from stdin")
	nearestCmd.Flags().DurationVar(&nearestDebounce, "debounce", 500*time.Millisecond, "quiet period before an interactive lookup runs")
	nearestCmd.Flags().BoolVar(&nearestOffline, "offline", false, "skip geocoding and use the text heuristic")

	rootCmd.AddCommand(nearestCmd)
}

func newGeocoder() (domain.Geocoder, error) {
	if nearestOffline {
		return nil, nil
	}
	timeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPS_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAPS_TIMEOUT: %w", err)
	}
	client := googlemaps.NewClient(sharedcfg.EnvOrDefault("MAPS_API_KEY", ""), timeout, observability.NewMetricsForTesting(), cliLogger())
	if err := client.Ready(); err != nil {
		return nil, err
	}
	return client, nil
}

func runNearest(cmd *cobra.Command, args []string) error {
	geocoder, err := newGeocoder()
	if err != nil {
		return err
	}

	if !nearestInteractive {
		if len(args) == 0 {
			return errors.New("address argument is required unless --interactive is set")
		}
		res := domain.ResolveNearestOffice(cmd.Context(), args[0], geocoder, cliLogger())
		return writeJSON(cmd.OutOrStdout(), res)
	}
	return interactiveNearest(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), geocoder, nearestDebounce)
}

// interactiveNearest submits each input line to an AddressLookup and prints
// the results it publishes. On EOF it waits for the last submission.
func interactiveNearest(ctx context.Context, in io.Reader, out io.Writer, geocoder domain.Geocoder, debounce time.Duration) error {
	results := make(chan planner.LookupResult, 16)
	lookup := planner.NewAddressLookup(geocoder, debounce, nil, cliLogger(), func(r planner.LookupResult) {
		results <- r
	})
	defer lookup.Close()

	lastCh := make(chan uint64, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var seen, want uint64
		waiting := lastCh
		for {
			select {
			case r := <-results:
				_ = writeJSON(out, r)
				seen = r.Generation
			case want = <-waiting:
				if want == 0 {
					return
				}
				waiting = nil
			case <-ctx.Done():
				return
			}
			if want != 0 && seen >= want {
				return
			}
		}
	}()

	var last uint64
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		last = lookup.Submit(ctx, line)
	}
	lastCh <- last
	<-done

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read addresses: %w", err)
	}
	return nil
}
