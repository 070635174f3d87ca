package application

import (
	"context"
	"testing"

	catalog "schoolfin-cloud/internal/catalog/domain"
	fees "schoolfin-cloud/internal/fees/domain"
)

func assignClass(t *testing.T, f *fixture, count int, selections []string) {
	t.Helper()
	ids := f.seedStudents(t, count)
	summary, err := f.service.BulkAssign(context.Background(), BulkRequest{
		ClassID:          "class-1",
		AcademicYear:     "2025/2026",
		Term:             fees.TermFirst,
		StudentIDs:       ids,
		SharedSelections: selections,
	})
	if err != nil {
		t.Fatalf("bulk assign: %v", err)
	}
	if summary.SuccessCount != count {
		t.Fatalf("expected %d successes, got %d", count, summary.SuccessCount)
	}
}

func TestPreviewReconciliation_NoOpChangeYieldsZeroDifference(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	f.seedStructure(t)
	assignClass(t, f, 5, []string{"cat-feeding"})

	preview, err := f.service.PreviewReconciliation(context.Background(), "fs-1", false)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Affected) != 5 {
		t.Fatalf("expected 5 affected students, got %d", len(preview.Affected))
	}
	for _, affected := range preview.Affected {
		if affected.Difference != 0 {
			t.Fatalf("expected zero difference for %s, got %v", affected.StudentID, affected.Difference)
		}
	}
}

func TestPreviewReconciliation_FeedingIncrease(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	structure := f.seedStructure(t)
	f.seedStudents(t, 5)
	ctx := context.Background()

	// Three students selected Feeding, two did not.
	selections := map[string][]string{
		"stu-1": {"cat-feeding"},
		"stu-2": {"cat-feeding"},
		"stu-3": {"cat-feeding"},
		"stu-4": {},
		"stu-5": {},
	}
	summary, err := f.service.BulkAssign(ctx, BulkRequest{
		ClassID:           "class-1",
		AcademicYear:      "2025/2026",
		Term:              fees.TermFirst,
		StudentIDs:        []string{"stu-1", "stu-2", "stu-3", "stu-4", "stu-5"},
		StudentSelections: selections,
	})
	if err != nil || summary.SuccessCount != 5 {
		t.Fatalf("bulk assign: %v %+v", err, summary)
	}

	// Feeding goes from 5000 to 7000.
	structure.FeeItems[1].Amount = 7000
	if err := f.structures.Save(ctx, structure); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	preview, err := f.service.PreviewReconciliation(ctx, "fs-1", false)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Affected) != 5 {
		t.Fatalf("expected 5 affected students, got %d", len(preview.Affected))
	}
	for _, affected := range preview.Affected {
		selected := len(selections[affected.StudentID]) > 0
		if selected && affected.Difference != 2000 {
			t.Fatalf("expected +2000 for %s, got %v", affected.StudentID, affected.Difference)
		}
		if !selected && affected.Difference != 0 {
			t.Fatalf("expected 0 for %s, got %v", affected.StudentID, affected.Difference)
		}
	}
}

func TestApplyReconciliation_UpdatesSelectedAndPreservesPayments(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	structure := f.seedStructure(t)
	assignClass(t, f, 3, []string{"cat-feeding"})
	ctx := context.Background()

	structure.FeeItems[1].Amount = 7000
	if err := f.structures.Save(ctx, structure); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	result, err := f.service.ApplyReconciliation(ctx, ApplyRequest{FeeStructureID: "fs-1"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Updated != 3 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected 3 updated, got %+v", result)
	}

	stored, _ := f.assignments.Get(ctx, fees.BuildAssignmentID("stu-1", "class-1", "2025/2026", fees.TermFirst))
	if stored.TotalAmount != 27000 {
		t.Fatalf("expected new total 27000, got %v", stored.TotalAmount)
	}
	if stored.Balance != 27000 {
		t.Fatalf("expected balance 27000, got %v", stored.Balance)
	}
	if stored.AmountPaid != 0 {
		t.Fatalf("expected amountPaid untouched, got %v", stored.AmountPaid)
	}
	if stored.Status != fees.StatusUnpaid {
		t.Fatalf("expected unpaid, got %s", stored.Status)
	}
}

// seedPayment simulates payment recording, which lives outside the fee
// engine, by rewriting the stored record directly.
func seedPayment(t *testing.T, f *fixture, assignmentID string, paid float64) {
	t.Helper()
	ctx := context.Background()
	stored, err := f.assignments.Get(ctx, assignmentID)
	if err != nil || stored == nil {
		t.Fatalf("load assignment: %v %v", stored, err)
	}
	updated := stored.Clone()
	updated.AmountPaid = paid
	updated.Balance = updated.TotalAmount - paid
	updated.Status = fees.DeriveStatus(updated.TotalAmount, paid)
	if err := f.assignments.Replace(updated); err != nil {
		t.Fatalf("replace assignment: %v", err)
	}
}

func TestApplyReconciliation_PaidStudentExcludedByDefault(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	structure := f.seedStructure(t)
	assignClass(t, f, 2, []string{"cat-feeding"})
	ctx := context.Background()

	paidID := fees.BuildAssignmentID("stu-2", "class-1", "2025/2026", fees.TermFirst)
	seedPayment(t, f, paidID, 10000)

	structure.FeeItems[1].Amount = 7000
	if err := f.structures.Save(ctx, structure); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	preview, err := f.service.PreviewReconciliation(ctx, "fs-1", false)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Affected) != 1 || preview.Affected[0].StudentID != "stu-1" {
		t.Fatalf("expected only stu-1 affected, got %+v", preview.Affected)
	}

	result, err := f.service.ApplyReconciliation(ctx, ApplyRequest{FeeStructureID: "fs-1"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %+v", result)
	}

	paid, _ := f.assignments.Get(ctx, paidID)
	if paid.TotalAmount != 25000 {
		t.Fatalf("expected paid student untouched at 25000, got %v", paid.TotalAmount)
	}
}

func TestApplyReconciliation_IncludePaidPreservesAmountPaid(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	structure := f.seedStructure(t)
	assignClass(t, f, 1, []string{"cat-feeding"})
	ctx := context.Background()

	id := fees.BuildAssignmentID("stu-1", "class-1", "2025/2026", fees.TermFirst)
	seedPayment(t, f, id, 10000)

	structure.FeeItems[1].Amount = 7000
	if err := f.structures.Save(ctx, structure); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	result, err := f.service.ApplyReconciliation(ctx, ApplyRequest{
		FeeStructureID: "fs-1",
		StudentIDs:     []string{"stu-1"},
		IncludePaid:    true,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %+v", result)
	}

	stored, _ := f.assignments.Get(ctx, id)
	if stored.AmountPaid != 10000 {
		t.Fatalf("expected amountPaid preserved at 10000, got %v", stored.AmountPaid)
	}
	if stored.TotalAmount != 27000 {
		t.Fatalf("expected new total 27000, got %v", stored.TotalAmount)
	}
	if stored.Balance != 17000 {
		t.Fatalf("expected balance 17000, got %v", stored.Balance)
	}
	if stored.Status != fees.StatusPartial {
		t.Fatalf("expected partial, got %s", stored.Status)
	}
}

func TestApplyReconciliation_OverpaidAllowed(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	structure := f.seedStructure(t)
	assignClass(t, f, 1, []string{"cat-feeding"})
	ctx := context.Background()

	id := fees.BuildAssignmentID("stu-1", "class-1", "2025/2026", fees.TermFirst)
	seedPayment(t, f, id, 25000)

	// Feeding drops to 1000, the paid student ends up overpaid.
	structure.FeeItems[1].Amount = 1000
	if err := f.structures.Save(ctx, structure); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	result, err := f.service.ApplyReconciliation(ctx, ApplyRequest{
		FeeStructureID: "fs-1",
		StudentIDs:     []string{"stu-1"},
		IncludePaid:    true,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %+v", result)
	}

	stored, _ := f.assignments.Get(ctx, id)
	if stored.TotalAmount != 21000 {
		t.Fatalf("expected new total 21000, got %v", stored.TotalAmount)
	}
	if stored.Balance != -4000 {
		t.Fatalf("expected balance -4000, got %v", stored.Balance)
	}
	if stored.Status != fees.StatusOverpaid {
		t.Fatalf("expected overpaid, got %s", stored.Status)
	}
}

func TestApplyReconciliation_DeselectedStudentsSkipped(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	structure := f.seedStructure(t)
	assignClass(t, f, 3, []string{"cat-feeding"})
	ctx := context.Background()

	structure.FeeItems[1].Amount = 7000
	if err := f.structures.Save(ctx, structure); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	result, err := f.service.ApplyReconciliation(ctx, ApplyRequest{
		FeeStructureID: "fs-1",
		StudentIDs:     []string{"stu-2"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Updated != 1 || result.Skipped != 2 {
		t.Fatalf("expected 1 updated 2 skipped, got %+v", result)
	}
}

func TestPreviewReconciliation_DroppedSelectionIgnored(t *testing.T) {
	f := newFixture(t, EngineConfig{DiscountScope: DiscountScopeFull})
	structure := f.seedStructure(t)
	assignClass(t, f, 1, []string{"cat-feeding"})
	ctx := context.Background()

	// The optional Feeding item is removed from the structure entirely.
	structure.FeeItems = []catalog.FeeItem{structure.FeeItems[0]}
	if err := f.structures.Save(ctx, structure); err != nil {
		t.Fatalf("save structure: %v", err)
	}

	preview, err := f.service.PreviewReconciliation(ctx, "fs-1", false)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Affected) != 1 {
		t.Fatalf("expected 1 affected, got %d", len(preview.Affected))
	}
	if preview.Affected[0].NewTotal != 20000 || preview.Affected[0].Difference != -5000 {
		t.Fatalf("expected new total 20000 difference -5000, got %+v", preview.Affected[0])
	}
}
