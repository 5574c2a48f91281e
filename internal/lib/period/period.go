// Package period содержит арифметику сроков аренды. Расчётный период — сутки:
// произвольная длительность округляется вверх до целого числа суток,
// стоимость считается за каждые начатые сутки.
package period

import (
	"time"
)

// Day — длительность одного расчётного периода аренды.
const Day = 24 * time.Hour

// Count возвращает число расчётных суток в длительности term,
// округляя вверх до целых суток. Для term <= 0 возвращает 0.
func Count(term time.Duration) int {
	if term <= 0 {
		return 0
	}
	days := int(term / Day)
	if term%Day != 0 {
		days++
	}
	return days
}

// Expiry возвращает момент истечения аренды, начатой в start на days суток.
func Expiry(start time.Time, days int) time.Time {
	return start.Add(time.Duration(days) * Day)
}

// Price возвращает стоимость аренды: ставка за сутки на каждые начатые сутки.
func Price(ratePerDay float64, term time.Duration) float64 {
	return ratePerDay * float64(Count(term))
}
