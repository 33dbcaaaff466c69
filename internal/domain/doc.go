// Package domain models the daily surf report: buoy readings, forecast and
// tide inputs, and the pure functions that judge, score, and describe them.
//
// # Data Sources
//
// Sensor readings come from NOAA National Data Buoy Center (NDBC) realtime
// feeds, forecasts from the National Weather Service (api.weather.gov), and
// tide predictions from NOAA CO-OPS. Sibling ingest jobs write each feed into
// intermediate storage keyed by (date, location); this package only sees the
// stored values.
//
// # Measurement Conventions
//
// Reading fields are kept as the strings the sensor adapter wrote:
//
//	wave_height   "5.2 ft"   feet, converted from NDBC meters
//	wave_period   "11 s"     dominant period in seconds
//	wind_speed    "8 mph"    converted from NDBC m/s
//	wind_direction "NW"      16-point compass, converted from degrees true
//	water_temp    "61 F"     converted from NDBC Celsius
//
// Values are read with a leading-numeric-prefix parse, so units and trailing
// text are ignored. "N/A", "null", "undefined", "MM" (the NDBC marker), and
// empty strings all mean "not currently measured". See [ParseMeasurement].
//
// # Validity
//
// A reading is usable only when its wave height parses as a finite,
// non-negative number ([IsValid]). Other fields may be missing; scoring and
// narrative treat them as zero or omit them.
//
// # Rating
//
// Two named [RatingStrategy] tables exist. [DirectionalRating] is canonical:
// it buckets height and period and grades wind speed separately for offshore
// and onshore directions. [AdditiveRating] is the legacy base-5 table that
// ignores wind direction. Both round to the nearest integer and clamp to 1-10.
//
// Offshore classification is a single-coast heuristic: any wind direction
// containing N or W is offshore ([IsOffshore]).
//
// # Narrative
//
// [Composer] assembles the report text. Phrasing within a rating tier is
// chosen by an injected [Selector]; every candidate set is enumerable through
// [OpeningCandidates], [ClosingCandidates], and [FallbackCandidates].
package domain
