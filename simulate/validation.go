package simulate

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
)

const (
	minPercentile = 1
	maxPercentile = 100
)

// Validate checks items and groups before any sampling happens. Ranges in
// a group may share boundary points but must not otherwise overlap.
func Validate(items []LineItem, groups []PriceGroup) error {
	if len(items) == 0 {
		return apperrors.Invalid("items", "at least one line item is required")
	}
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if err := checkNonNegative(field+".unit_price", item.UnitPrice); err != nil {
			return err
		}
		if err := checkNonNegative(field+".quantity", item.Quantity); err != nil {
			return err
		}
	}

	if len(groups) == 0 {
		return apperrors.Invalid("groups", "at least one price group is required")
	}
	for gi, g := range groups {
		if err := validateGroup(fmt.Sprintf("groups[%d]", gi), g); err != nil {
			return err
		}
	}
	return nil
}

func validateGroup(field string, g PriceGroup) error {
	if g.ParticipantCount <= 0 {
		return apperrors.Invalid(field+".participant_count", "must be positive, got %d", g.ParticipantCount)
	}
	if !isFinite(g.BaseReduction) || g.BaseReduction <= 0 {
		return apperrors.Invalid(field+".base_reduction", "must be a positive number, got %v", g.BaseReduction)
	}
	if len(g.Ranges) == 0 {
		return apperrors.Invalid(field+".ranges", "at least one range is required")
	}
	for ri, r := range g.Ranges {
		if err := validateRange(fmt.Sprintf("%s.ranges[%d]", field, ri), r); err != nil {
			return err
		}
	}
	return checkOverlap(field, g.Ranges)
}

func validateRange(field string, r PriceRange) error {
	for _, bound := range []struct {
		name  string
		value float64
	}{{"start", r.Start}, {"end", r.End}} {
		if !isFinite(bound.value) || bound.value < minPercentile || bound.value > maxPercentile {
			return apperrors.Invalid(field+"."+bound.name, "must be within %d-%d, got %v", minPercentile, maxPercentile, bound.value)
		}
	}
	if r.Start > r.End {
		return apperrors.Invalid(field+".start", "start %v is after end %v", r.Start, r.End)
	}
	for _, bound := range []struct {
		name  string
		value float64
	}{{"min", r.Min}, {"max", r.Max}} {
		if !isFinite(bound.value) || bound.value <= 0 {
			return apperrors.Invalid(field+"."+bound.name, "must be a positive number, got %v", bound.value)
		}
	}
	if r.Min > r.Max {
		return apperrors.Invalid(field+".min", "min %v is greater than max %v", r.Min, r.Max)
	}
	return nil
}

func checkOverlap(field string, ranges []PriceRange) error {
	order := make([]int, len(ranges))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := ranges[order[a]], ranges[order[b]]
		if ra.Start != rb.Start {
			return ra.Start < rb.Start
		}
		return ra.End < rb.End
	})

	reach := order[0] // index of the range reaching furthest so far
	for _, idx := range order[1:] {
		prev, cur := ranges[reach], ranges[idx]
		if cur.Start < prev.End || (cur.Start == prev.Start && cur.End == prev.End) {
			return apperrors.Invalid(fmt.Sprintf("%s.ranges[%d]", field, idx),
				"overlaps ranges[%d] (%v-%v)", reach, prev.Start, prev.End)
		}
		if cur.End > prev.End {
			reach = idx
		}
	}
	return nil
}

func checkNonNegative(field string, v float64) error {
	if !isFinite(v) {
		return apperrors.Invalid(field, "must be a finite number")
	}
	if v < 0 {
		return apperrors.Invalid(field, "must not be negative, got %v", v)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
