package judge

import "time"

// Accuracy maps an absolute calibrated error to a 0-100 score.
// Inclusive on the near boundary, so an error exactly on the perfect
// window still scores 100 and one exactly on the miss window scores 0.
func Accuracy(err, perfect, miss time.Duration) float64 {
	if err < 0 {
		err = -err
	}
	if err <= perfect {
		return 100
	}
	if err >= miss {
		return 0
	}
	return 100 * (1 - float64(err-perfect)/float64(miss-perfect))
}
