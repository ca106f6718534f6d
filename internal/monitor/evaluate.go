package monitor

import (
	log "github.com/sirupsen/logrus"

	"pairwatch-telegram-bot/internal/types"
)

// Evaluate reports whether the alert's condition is satisfied at priceUSD.
// It is a pure decision function; it never mutates the alert.
func Evaluate(a types.Alert, priceUSD float64) bool {
	switch a.Condition {
	case types.ConditionAbove:
		// strict: hitting the target exactly does not fire
		return priceUSD > a.Target

	case types.ConditionBelow:
		return priceUSD < a.Target

	case types.ConditionPercent:
		if a.Target == 0 {
			return false
		}
		if a.ReferencePrice == 0 {
			// should have been rejected at creation time
			log.Warnf("alert %s has a zero reference price, percent change is undefined", a.ID)
			return false
		}
		pct := (priceUSD - a.ReferencePrice) / a.ReferencePrice * 100
		if a.Target > 0 {
			return pct >= a.Target
		}
		return pct <= a.Target
	}

	log.Warnf("alert %s has unknown condition %q", a.ID, a.Condition)
	return false
}

// PercentSinceCreation returns the price move relative to the alert's
// reference price, in percent. Returns 0 when the reference price is unusable.
func PercentSinceCreation(a types.Alert, priceUSD float64) float64 {
	if a.ReferencePrice == 0 {
		return 0
	}
	return (priceUSD - a.ReferencePrice) / a.ReferencePrice * 100
}
