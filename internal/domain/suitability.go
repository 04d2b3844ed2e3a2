package domain

import "strings"

const baselineScore = 100

// rule is one scoring clause: when matches reports true the score moves by
// delta and reason is recorded.
type rule struct {
	matches func(WeatherObservation) bool
	delta   int
	reason  string
}

// ruleGroup is an ordered list of mutually exclusive rules. Only the first
// matching rule applies.
type ruleGroup struct {
	name  string
	rules []rule
}

func (g ruleGroup) match(o WeatherObservation) (rule, bool) {
	for _, r := range g.rules {
		if r.matches(o) {
			return r, true
		}
	}
	return rule{}, false
}

var temperatureRules = ruleGroup{name: "temperature", rules: []rule{
	{matches: tempBelow(45), delta: -40, reason: "Too cold for outdoor events"},
	{matches: tempBelow(55), delta: -25, reason: "Cold - bring jackets"},
	{matches: tempWithin(65, 75), delta: 15, reason: "Perfect temperature"},
	{matches: tempAbove(85), delta: -30, reason: "Too hot for comfort"},
	{matches: tempAbove(80), delta: -15, reason: "Warm - consider shade"},
}}

var conditionRules = ruleGroup{name: "condition", rules: []rule{
	{matches: conditionHas("thunder", "storm"), delta: -60, reason: "DANGER: Thunderstorms - postpone event"},
	{matches: conditionHas("heavy rain", "torrential"), delta: -50, reason: "Heavy rain - event will be ruined"},
	{matches: conditionHas("snow", "blizzard"), delta: -40, reason: "Snow - cold and slippery"},
	{matches: conditionHas("overcast", "cloudy"), delta: 25, reason: "Perfect overcast - ideal for events"},
	{matches: conditionHas("partly cloudy", "partly cloud"), delta: 20, reason: "Great partly cloudy conditions"},
	{matches: conditionHas("light rain", "drizzle"), delta: 5, reason: "Light rain - bring umbrellas"},
	{matches: conditionHas("rain"), delta: -10, reason: "Moderate rain - consider indoor backup"},
	{matches: conditionHas("fog", "mist"), delta: -15, reason: "Poor visibility"},
	// Sunny skies depend on how hot it already is.
	{matches: both(conditionHas("clear", "sunny"), tempAbove(80)), delta: -20, reason: "Hot and sunny - need shade"},
	{matches: both(conditionHas("clear", "sunny"), tempBelow(65)), delta: 10, reason: "Sunny and pleasant"},
	{matches: conditionHas("clear", "sunny"), delta: -5, reason: "Sunny - consider shade options"},
}}

var windRules = ruleGroup{name: "wind", rules: []rule{
	{matches: windAbove(25), delta: -30, reason: "DANGER: High winds - unsafe"},
	{matches: windAbove(20), delta: -20, reason: "Strong winds - difficult conditions"},
	{matches: windAbove(15), delta: -10, reason: "Moderate winds - manageable"},
	{matches: windWithin(5, 10), delta: 5, reason: "Pleasant breeze"},
}}

var humidityRules = ruleGroup{name: "humidity", rules: []rule{
	{matches: humidityAbove(85), delta: -20, reason: "Very humid - uncomfortable"},
	{matches: humidityAbove(70), delta: -10, reason: "High humidity"},
	{matches: humidityWithin(40, 60), delta: 10, reason: "Perfect humidity"},
	{matches: humidityBelow(25), delta: -5, reason: "Very dry air"},
}}

// scoringOrder is the fixed sequence in which rule groups are applied.
var scoringOrder = []ruleGroup{temperatureRules, conditionRules, windRules, humidityRules}

// Score rates how favorable an observation is for an outdoor event.
func Score(o WeatherObservation) SuitabilityResult {
	score := baselineScore
	reasons := make([]string, 0, len(scoringOrder))

	for _, g := range scoringOrder {
		if r, ok := g.match(o); ok {
			score += r.delta
			reasons = append(reasons, r.reason)
		}
	}

	score = clampScore(score)
	return SuitabilityResult{
		Score:      score,
		Reasons:    reasons,
		IsSuitable: score >= SuitabilityThreshold,
	}
}

// PickBest returns the highest-scoring observation. Ties keep the earliest
// observation. ok is false only for an empty slice.
func PickBest(observations []WeatherObservation) (best WeatherObservation, ok bool) {
	if len(observations) == 0 {
		return WeatherObservation{}, false
	}

	best = observations[0]
	bestScore := Score(best).Score
	for _, o := range observations[1:] {
		if s := Score(o).Score; s > bestScore {
			best, bestScore = o, s
		}
	}
	return best, true
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

func conditionHas(words ...string) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool {
		condition := strings.ToLower(o.Condition)
		for _, w := range words {
			if strings.Contains(condition, w) {
				return true
			}
		}
		return false
	}
}

func both(a, b func(WeatherObservation) bool) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool { return a(o) && b(o) }
}

func tempBelow(v float64) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool { return o.TemperatureF < v }
}

func tempAbove(v float64) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool { return o.TemperatureF > v }
}

func tempWithin(lo, hi float64) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool { return o.TemperatureF >= lo && o.TemperatureF <= hi }
}

func windAbove(v float64) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool { return o.WindSpeedMph > v }
}

func windWithin(lo, hi float64) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool { return o.WindSpeedMph >= lo && o.WindSpeedMph <= hi }
}

func humidityAbove(v float64) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool { return o.Humidity > v }
}

func humidityBelow(v float64) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool { return o.Humidity < v }
}

func humidityWithin(lo, hi float64) func(WeatherObservation) bool {
	return func(o WeatherObservation) bool { return o.Humidity >= lo && o.Humidity <= hi }
}
