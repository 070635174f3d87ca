package fees

import catalog "schoolfin-cloud/internal/catalog/domain"

const (
	DiscountPercentage  = "percentage"
	DiscountFixedAmount = "fixed_amount"
	DiscountFullWaiver  = "full_waiver"
)

// DiscountRule is the calculator's view of a scholarship. Malformed
// values are tolerated here and clamped to zero, strict validation
// happens at scholarship creation time.
type DiscountRule struct {
	Type                  string
	PercentageOff         float64
	FixedAmountOff        float64
	MaxDiscountPerStudent float64
}

// DiscountResult is the outcome of a discount calculation.
type DiscountResult struct {
	OriginalAmount float64
	DiscountAmount float64
	TotalAmount    float64
}

// ItemFilter selects the subset of items the discount is computed over.
// A nil filter means the full selected set. Whether a scholarship's fee
// type lists should narrow the discount base is a policy choice, the
// seam keeps the formula independent of it.
type ItemFilter func(item catalog.FeeItem) bool

// TypeItemFilter builds an ItemFilter from fee type include and exclude
// lists. An empty include list admits every type not excluded.
func TypeItemFilter(include, exclude []string) ItemFilter {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	included := make(map[string]bool, len(include))
	for _, t := range include {
		included[t] = true
	}
	excluded := make(map[string]bool, len(exclude))
	for _, t := range exclude {
		excluded[t] = true
	}
	return func(item catalog.FeeItem) bool {
		if excluded[item.FeeType] {
			return false
		}
		if len(included) > 0 && !included[item.FeeType] {
			return false
		}
		return true
	}
}

// CalculateDiscount computes the billed amounts for the selected items
// under an optional discount rule. Guarantees for every input:
// 0 <= DiscountAmount <= OriginalAmount and TotalAmount >= 0.
func CalculateDiscount(selected []catalog.FeeItem, rule *DiscountRule, filter ItemFilter) DiscountResult {
	var original, base float64
	for _, item := range selected {
		original += item.Amount
		if filter == nil || filter(item) {
			base += item.Amount
		}
	}

	var discount float64
	if rule != nil {
		switch rule.Type {
		case DiscountPercentage:
			pct := rule.PercentageOff
			if pct < 0 {
				pct = 0
			}
			if pct > 100 {
				pct = 100
			}
			discount = base * pct / 100
		case DiscountFixedAmount:
			fixed := rule.FixedAmountOff
			if fixed < 0 {
				fixed = 0
			}
			discount = fixed
			if discount > base {
				discount = base
			}
		case DiscountFullWaiver:
			discount = base
		}
		if rule.MaxDiscountPerStudent > 0 && discount > rule.MaxDiscountPerStudent {
			discount = rule.MaxDiscountPerStudent
		}
	}

	if discount < 0 {
		discount = 0
	}
	if discount > original {
		discount = original
	}
	total := original - discount
	if total < 0 {
		total = 0
	}
	return DiscountResult{
		OriginalAmount: original,
		DiscountAmount: discount,
		TotalAmount:    total,
	}
}
