// Package domain holds the office-planning rules: weather suitability scoring,
// nearest-office resolution and the calendar arithmetic around forecasts.
//
// # Suitability
//
// A [WeatherObservation] is scored starting from 100. Four rule groups are
// applied in a fixed order: temperature, condition, wind, humidity. Each group
// is an ordered table of rules and the first matching rule in a group is the
// only one applied. Rules adjust the score and append a reason. The score is
// clamped to 0–100 once, after every group has run:
//
//	Temperature (°F):  <45 -40 | <55 -25 | 65–75 +15 | >85 -30 | >80 -15
//	Condition:         thunder/storm -60 | heavy rain/torrential -50 |
//	                   snow/blizzard -40 | overcast/cloudy +25 |
//	                   partly cloudy +20 | light rain/drizzle +5 | rain -10 |
//	                   fog/mist -15 | clear/sunny (>80°F -20, <65°F +10, else -5)
//	Wind (mph):        >25 -30 | >20 -20 | >15 -10 | 5–10 +5
//	Humidity (%):      >85 -20 | >70 -10 | 40–60 +10 | <25 -5
//
// Conditions are matched as lower-cased substrings, so "Partly cloudy" is
// caught by the overcast/cloudy rule before the partly-cloudy rule is reached.
// An observation scoring 75 or more is suitable for an outdoor event.
//
// # Offices
//
// The five company offices are fixed for the process lifetime. The nearest
// office to a point is found by great-circle (haversine) distance using an
// Earth radius of 3958.8 miles. When no coordinates are available a text
// heuristic matches the address against office names.
//
// # Forecast range
//
// WeatherAPI.com serves daily forecasts for today through today+10. Dates
// outside that window are planned with current conditions.
package domain
