// Package metrics computes summary figures over a caller's meal history.
package metrics

import "github.com/Robson16/daily-diet-api/internal/model"

// Compute counts meals and finds the longest run of consecutive on-diet
// meals in a single pass.
//
// The run is measured in the order meals are given. Callers pass the list
// exactly as the registry returns it (date_time descending), and the result
// depends on that order only through BestSequence.
//
// THE STREAK SCAN:
// current is the length of the on-diet run ending at the meal just read.
// An on-diet meal extends it; an off-diet meal resets it to zero. The best
// run is the largest value current ever reaches:
//
//	on_diet:  T  T  F  T  T  T  F
//	current:  1  2  0  1  2  3  0   → BestSequence = 3
//
// One pass and O(1) extra space, so metrics cost the same as reading the list.
func Compute(meals []model.Meal) model.Metrics {
	var m model.Metrics
	current := 0

	for _, meal := range meals {
		m.RecordedMeals++
		if meal.OnDiet {
			m.OnDietMeals++
			current++
			if current > m.BestSequence {
				m.BestSequence = current
			}
			continue
		}
		m.OffDietMeals++
		current = 0 // run broken
	}

	return m
}
