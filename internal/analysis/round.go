package analysis

import "math"

// RoundSig rounds v to n significant figures. Zero stays zero.
func RoundSig(v float64, n int) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	decimals := n - 1 - int(math.Floor(math.Log10(math.Abs(v))))
	return roundDecimals(v, decimals)
}

// maxPow10 keeps math.Pow(10, n) finite.
const maxPow10 = 300

func roundDecimals(v float64, decimals int) float64 {
	if decimals > maxPow10 {
		// Tiny magnitudes: lift v into range first, round, then scale back.
		shift := math.Pow(10, float64(decimals-maxPow10))
		return roundDecimals(v*shift, maxPow10) / shift
	}
	if decimals >= 0 {
		p := math.Pow(10, float64(decimals))
		return math.Round(v*p) / p
	}
	p := math.Pow(10, float64(-decimals))
	return math.Round(v/p) * p
}

// RoundTo rounds v to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	return roundDecimals(v, decimals)
}
