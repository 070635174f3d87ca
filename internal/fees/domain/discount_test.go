package fees

import (
	"testing"

	catalog "schoolfin-cloud/internal/catalog/domain"
)

func tuitionAndFeeding() []catalog.FeeItem {
	return []catalog.FeeItem{
		{CategoryID: "cat-tuition", CategoryName: "Tuition", FeeType: "tuition", Amount: 20000, IsMandatory: true},
		{CategoryID: "cat-feeding", CategoryName: "Feeding", FeeType: "feeding", Amount: 5000, IsOptional: true},
	}
}

func TestCalculateDiscount_NoScholarship(t *testing.T) {
	result := CalculateDiscount(tuitionAndFeeding(), nil, nil)
	if result.OriginalAmount != 25000 {
		t.Fatalf("expected original 25000, got %v", result.OriginalAmount)
	}
	if result.DiscountAmount != 0 {
		t.Fatalf("expected discount 0, got %v", result.DiscountAmount)
	}
	if result.TotalAmount != 25000 {
		t.Fatalf("expected total 25000, got %v", result.TotalAmount)
	}
}

func TestCalculateDiscount_Percentage(t *testing.T) {
	rule := &DiscountRule{Type: DiscountPercentage, PercentageOff: 10}
	result := CalculateDiscount(tuitionAndFeeding(), rule, nil)
	if result.DiscountAmount != 2500 {
		t.Fatalf("expected discount 2500, got %v", result.DiscountAmount)
	}
	if result.TotalAmount != 22500 {
		t.Fatalf("expected total 22500, got %v", result.TotalAmount)
	}
}

func TestCalculateDiscount_FixedExceedingOriginalClamps(t *testing.T) {
	rule := &DiscountRule{Type: DiscountFixedAmount, FixedAmountOff: 30000}
	result := CalculateDiscount(tuitionAndFeeding(), rule, nil)
	if result.DiscountAmount != 25000 {
		t.Fatalf("expected discount clamped to 25000, got %v", result.DiscountAmount)
	}
	if result.TotalAmount != 0 {
		t.Fatalf("expected total 0, got %v", result.TotalAmount)
	}
}

func TestCalculateDiscount_FullWaiver(t *testing.T) {
	rule := &DiscountRule{Type: DiscountFullWaiver}
	result := CalculateDiscount(tuitionAndFeeding(), rule, nil)
	if result.DiscountAmount != 25000 || result.TotalAmount != 0 {
		t.Fatalf("expected full waiver, got discount %v total %v", result.DiscountAmount, result.TotalAmount)
	}
}

func TestCalculateDiscount_MaxPerStudentCap(t *testing.T) {
	rule := &DiscountRule{Type: DiscountFullWaiver, MaxDiscountPerStudent: 10000}
	result := CalculateDiscount(tuitionAndFeeding(), rule, nil)
	if result.DiscountAmount != 10000 {
		t.Fatalf("expected discount capped at 10000, got %v", result.DiscountAmount)
	}
	if result.TotalAmount != 15000 {
		t.Fatalf("expected total 15000, got %v", result.TotalAmount)
	}
}

func TestCalculateDiscount_EmptyItems(t *testing.T) {
	rule := &DiscountRule{Type: DiscountPercentage, PercentageOff: 50}
	result := CalculateDiscount(nil, rule, nil)
	if result.OriginalAmount != 0 || result.DiscountAmount != 0 || result.TotalAmount != 0 {
		t.Fatalf("expected all zero, got %+v", result)
	}
}

func TestCalculateDiscount_MalformedValuesClampToZero(t *testing.T) {
	cases := []struct {
		name string
		rule DiscountRule
	}{
		{"negative percentage", DiscountRule{Type: DiscountPercentage, PercentageOff: -10}},
		{"negative fixed", DiscountRule{Type: DiscountFixedAmount, FixedAmountOff: -500}},
		{"missing value", DiscountRule{Type: DiscountPercentage}},
	}
	for _, tc := range cases {
		result := CalculateDiscount(tuitionAndFeeding(), &tc.rule, nil)
		if result.DiscountAmount != 0 {
			t.Fatalf("%s: expected discount 0, got %v", tc.name, result.DiscountAmount)
		}
		if result.TotalAmount != 25000 {
			t.Fatalf("%s: expected total 25000, got %v", tc.name, result.TotalAmount)
		}
	}
}

func TestCalculateDiscount_PercentageAbove100Clamps(t *testing.T) {
	rule := &DiscountRule{Type: DiscountPercentage, PercentageOff: 250}
	result := CalculateDiscount(tuitionAndFeeding(), rule, nil)
	if result.DiscountAmount != 25000 || result.TotalAmount != 0 {
		t.Fatalf("expected clamp to full amount, got %+v", result)
	}
}

func TestCalculateDiscount_TypeFilterNarrowsBase(t *testing.T) {
	filter := TypeItemFilter([]string{"tuition"}, nil)
	rule := &DiscountRule{Type: DiscountPercentage, PercentageOff: 50}
	result := CalculateDiscount(tuitionAndFeeding(), rule, filter)
	if result.OriginalAmount != 25000 {
		t.Fatalf("expected original 25000, got %v", result.OriginalAmount)
	}
	if result.DiscountAmount != 10000 {
		t.Fatalf("expected discount over tuition only 10000, got %v", result.DiscountAmount)
	}
	if result.TotalAmount != 15000 {
		t.Fatalf("expected total 15000, got %v", result.TotalAmount)
	}
}

func TestCalculateDiscount_ExcludeFilter(t *testing.T) {
	filter := TypeItemFilter(nil, []string{"feeding"})
	rule := &DiscountRule{Type: DiscountFullWaiver}
	result := CalculateDiscount(tuitionAndFeeding(), rule, filter)
	if result.DiscountAmount != 20000 {
		t.Fatalf("expected discount 20000, got %v", result.DiscountAmount)
	}
	if result.TotalAmount != 5000 {
		t.Fatalf("expected total 5000, got %v", result.TotalAmount)
	}
}

func TestTypeItemFilter_EmptyListsMeansNil(t *testing.T) {
	if TypeItemFilter(nil, nil) != nil {
		t.Fatalf("expected nil filter for empty lists")
	}
}
