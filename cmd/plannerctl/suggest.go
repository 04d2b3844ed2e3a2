package main

import (
	"errors"
	"fmt"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/spf13/cobra"

	"github.com/tardus/office-planner/internal/adapter/weatherapi"
	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
	"github.com/tardus/office-planner/internal/planner"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest the best office for an event date",
	Long:  "Fetches weather for every office and reports the best location for the date, or an alternative date and office when none qualifies.",
	RunE:  runSuggest,
}

var (
	suggestDate    string
	suggestCurrent bool
)

func init() {
	suggestCmd.Flags().StringVarP(&suggestDate, "date", "d", "", "event date (YYYY-MM-DD), defaults to today")
	suggestCmd.Flags().BoolVar(&suggestCurrent, "current", false, "print current conditions for every office instead of a suggestion")

	rootCmd.AddCommand(suggestCmd)
}

func parseEventDate(raw string) (domain.Date, error) {
	if raw == "" {
		return domain.Today(), nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	timeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("WEATHER_TIMEOUT", "5s"))
	if err != nil {
		return fmt.Errorf("invalid WEATHER_TIMEOUT: %w", err)
	}

	logger := cliLogger()
	metrics := observability.NewMetricsForTesting()
	client, err := weatherapi.NewClient(sharedcfg.EnvOrDefault("WEATHER_API_KEY", ""), timeout, metrics, logger)
	if err != nil {
		return err
	}
	p := planner.New(client, logger, metrics)

	if suggestCurrent {
		return writeJSON(cmd.OutOrStdout(), p.Weather(cmd.Context(), domain.Date{}))
	}

	date, err := parseEventDate(suggestDate)
	if err != nil {
		return err
	}
	s, err := p.Suggest(cmd.Context(), date)
	if errors.Is(err, planner.ErrNoWeather) {
		_ = writeJSON(cmd.ErrOrStderr(), s.Failed)
		return err
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), s)
}
