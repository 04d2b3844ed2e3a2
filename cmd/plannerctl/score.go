package main

import (
	"github.com/spf13/cobra"

	"github.com/tardus/office-planner/internal/domain"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a weather observation for outdoor events",
	RunE:  runScore,
}

var (
	scoreTemp      float64
	scoreCondition string
	scoreHumidity  float64
	scoreWind      float64
)

func init() {
	scoreCmd.Flags().Float64Var(&scoreTemp, "temp", 70, "temperature in °F")
	scoreCmd.Flags().StringVar(&scoreCondition, "condition", "Sunny", "condition text, e.g. \"Light rain\"")
	scoreCmd.Flags().Float64Var(&scoreHumidity, "humidity", 50, "relative humidity in percent")
	scoreCmd.Flags().Float64Var(&scoreWind, "wind", 5, "wind speed in mph")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	result := domain.Score(domain.WeatherObservation{
		TemperatureF: scoreTemp,
		Condition:    scoreCondition,
		Humidity:     scoreHumidity,
		WindSpeedMph: scoreWind,
	})
	return writeJSON(cmd.OutOrStdout(), struct {
		domain.SuitabilityResult
		Reason string `json:"reason"`
	}{result, result.Reason()})
}
