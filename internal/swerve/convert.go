package swerve

import "math"

// nativeRate converts a per-100ms velocity reading into a per-second one.
const nativeRate = 10.0

// AngleToCounts converts a steering angle into position counts for an
// encoder with cpr counts per revolution.
func AngleToCounts(rad, cpr float64) float64 {
	return rad * cpr / (2 * math.Pi)
}

// CountsToAngle is the inverse of AngleToCounts.
func CountsToAngle(counts, cpr float64) float64 {
	return counts * 2 * math.Pi / cpr
}

// DriveSpeed converts a drive velocity reading in counts per 100 ms into m/s.
func DriveSpeed(countsPer100ms, distancePerPulse float64) float64 {
	return countsPer100ms * distancePerPulse * nativeRate
}

// DriveCounts is the inverse of DriveSpeed.
func DriveCounts(speed, distancePerPulse float64) float64 {
	if distancePerPulse == 0 {
		return 0
	}
	return speed / (distancePerPulse * nativeRate)
}
