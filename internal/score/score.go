package score

import "math"

// DefaultMaxHeartRate is used when an athlete has no configured maximum.
const DefaultMaxHeartRate = 190

// ConsistencyBonusPoints is awarded from the third run of a week onwards.
const ConsistencyBonusPoints = 50

// Breakdown holds the component scores for a single run.
type Breakdown struct {
	DistanceScore    float64
	HeartRateScore   float64
	ConsistencyBonus float64
	TotalScore       float64
}

// hrZone maps a heart-rate intensity band to a per-minute rate.
// Bands are half-open: a percentage belongs to the first zone whose
// upper bound it is strictly below, so exactly 60% lands in the 60-70 band.
type hrZone struct {
	upperPct float64
	perMin   float64
}

var hrZones = []hrZone{
	{60, 0.5},
	{70, 1},
	{80, 2},
	{90, 4},
	{math.Inf(1), 7},
}

// DistanceScore awards 10 points per kilometer, rounded to 2 decimals.
func DistanceScore(distanceMeters float64) float64 {
	return round2(distanceMeters / 1000 * 10)
}

// HeartRateScore awards points per minute of moving time based on how hard
// the run was relative to the athlete's maximum heart rate. Missing or
// non-positive heart-rate data scores 0.
func HeartRateScore(averageHeartRate *float64, movingTimeSeconds int64, maxHeartRate int) float64 {
	if averageHeartRate == nil || *averageHeartRate <= 0 {
		return 0
	}
	if maxHeartRate <= 0 {
		maxHeartRate = DefaultMaxHeartRate
	}

	pct := *averageHeartRate / float64(maxHeartRate) * 100
	minutes := float64(movingTimeSeconds) / 60

	for _, zone := range hrZones {
		if pct < zone.upperPct {
			return round2(minutes * zone.perMin)
		}
	}
	return 0 // unreachable: the last zone is unbounded
}

// ConsistencyBonus awards a flat bonus when this run is the third or later
// of the athlete's week. ordinalInWeek is zero-based: the count of runs the
// athlete already committed earlier in the same week.
func ConsistencyBonus(ordinalInWeek int) float64 {
	if ordinalInWeek >= 2 {
		return ConsistencyBonusPoints
	}
	return 0
}

// Calculate produces the full score breakdown for one run.
func Calculate(distanceMeters float64, movingTimeSeconds int64, averageHeartRate *float64, maxHeartRate int, ordinalInWeek int) Breakdown {
	distance := DistanceScore(distanceMeters)
	heartRate := HeartRateScore(averageHeartRate, movingTimeSeconds, maxHeartRate)
	bonus := ConsistencyBonus(ordinalInWeek)

	return Breakdown{
		DistanceScore:    distance,
		HeartRateScore:   heartRate,
		ConsistencyBonus: bonus,
		TotalScore:       round2(distance + heartRate + bonus),
	}
}

// round2 rounds to 2 decimal places, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
