package ldpc

import "math"

const (
	// MaxPosLLR and MinNegLLR bound every variable-to-check and
	// check-to-variable message. Without the clamp, repeated updates grow
	// message magnitudes without limit.
	MaxPosLLR = 38.0
	MinNegLLR = -38.0
)

// clipLLR clamps x to [MinNegLLR, MaxPosLLR]. ±Inf saturate; NaN is not
// expected here (inputs are screened before decoding).
func clipLLR(x float64) float64 {
	if x > MaxPosLLR {
		return MaxPosLLR
	}
	if x < MinNegLLR {
		return MinNegLLR
	}
	return x
}

// checkMessage converts an extrinsic tanh product x into an LLR message,
// 2·atanh(x), saturating to the clip bound where atanh leaves the finite
// range. |x| can round to exactly 1 (tanh(19) == 1 in float64) or slightly
// above it after the division by the edge's own factor.
func checkMessage(x float64) float64 {
	if x >= 1 {
		return MaxPosLLR
	}
	if x <= -1 {
		return MinNegLLR
	}
	return clipLLR(2 * math.Atanh(x))
}
