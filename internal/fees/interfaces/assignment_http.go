package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"schoolfin-cloud/internal/audit"
	"schoolfin-cloud/internal/auth"
	feeapp "schoolfin-cloud/internal/fees/application"
	fees "schoolfin-cloud/internal/fees/domain"
	"schoolfin-cloud/internal/observability/metrics"
)

// AssignmentHandler handles fee assignment APIs.
type AssignmentHandler struct {
	service      *feeapp.Service
	classChecker auth.ClassSchoolChecker
	auditLogger  audit.Logger
}

// NewAssignmentHandler constructs a handler.
func NewAssignmentHandler(service *feeapp.Service, classChecker auth.ClassSchoolChecker, auditLogger audit.Logger) (*AssignmentHandler, error) {
	if service == nil {
		return nil, errors.New("assignment handler: nil service")
	}
	return &AssignmentHandler{service: service, classChecker: classChecker, auditLogger: auditLogger}, nil
}

// ServeHTTP handles routes under /api/v1/fee-assignments.
func (h *AssignmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/fee-assignments/bulk" && r.Method == http.MethodPost {
		h.handleBulk(w, r)
		return
	}
	if path == "/api/v1/fee-assignments/reconcile/preview" && r.Method == http.MethodPost {
		h.handleReconcilePreview(w, r)
		return
	}
	if path == "/api/v1/fee-assignments/reconcile/apply" && r.Method == http.MethodPost {
		h.handleReconcileApply(w, r)
		return
	}
	if path == "/api/v1/fee-assignments/export.xlsx" && r.Method == http.MethodGet {
		h.handleExportXLSX(w, r)
		return
	}
	if path == "/api/v1/fee-assignments" {
		switch r.Method {
		case http.MethodPost:
			h.handleAssign(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
	}
	if strings.HasPrefix(path, "/api/v1/fee-assignments/") {
		rest := strings.TrimPrefix(path, "/api/v1/fee-assignments/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *AssignmentHandler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClassID           string              `json:"class_id"`
		AcademicYear      string              `json:"academic_year"`
		Term              string              `json:"term"`
		StudentIDs        []string            `json:"student_ids"`
		ScholarshipID     string              `json:"scholarship_id"`
		StudentSelections map[string][]string `json:"student_selections"`
		SharedSelections  []string            `json:"shared_selections"`
		DueDate           string              `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.ensureClassSchool(r, req.ClassID); err != nil {
		respondSchoolError(w, err)
		return
	}

	bulkReq := feeapp.BulkRequest{
		ClassID:           req.ClassID,
		AcademicYear:      req.AcademicYear,
		Term:              req.Term,
		StudentIDs:        req.StudentIDs,
		ScholarshipID:     req.ScholarshipID,
		StudentSelections: req.StudentSelections,
		SharedSelections:  req.SharedSelections,
		DueDate:           req.DueDate,
	}
	// No explicit candidates means the whole class roster.
	var summary *feeapp.BulkResult
	var err error
	if len(req.StudentIDs) == 0 {
		summary, err = h.service.AssignClass(r.Context(), bulkReq)
	} else {
		summary, err = h.service.BulkAssign(r.Context(), bulkReq)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
	h.logAudit(r, req.ClassID, "", "assignment.bulk", map[string]any{
		"academic_year": req.AcademicYear,
		"term":          req.Term,
		"candidates":    len(req.StudentIDs),
		"success":       summary.SuccessCount,
		"duplicates":    summary.DuplicateCount,
		"errors":        len(summary.Errors),
	})
}

func (h *AssignmentHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID     string   `json:"student_id"`
		ClassID       string   `json:"class_id"`
		AcademicYear  string   `json:"academic_year"`
		Term          string   `json:"term"`
		ScholarshipID string   `json:"scholarship_id"`
		Selections    []string `json:"selections"`
		DueDate       string   `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.ensureClassSchool(r, req.ClassID); err != nil {
		respondSchoolError(w, err)
		return
	}

	assignment, err := h.service.AssignStudent(r.Context(), feeapp.IndividualRequest{
		StudentID:     req.StudentID,
		ClassID:       req.ClassID,
		AcademicYear:  req.AcademicYear,
		Term:          req.Term,
		ScholarshipID: req.ScholarshipID,
		Selections:    req.Selections,
		DueDate:       req.DueDate,
	})
	if err != nil {
		if errors.Is(err, fees.ErrDuplicateAssignment) {
			duplicates, derr := h.service.FindDuplicates(r.Context(), req.ClassID, req.AcademicYear, req.Term, []string{req.StudentID})
			count := len(duplicates)
			if derr != nil {
				count = 1
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":           "duplicate assignment",
				"duplicate_count": count,
			})
			return
		}
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(assignmentResponse(assignment))
	h.logAudit(r, req.ClassID, assignment.ID, "assignment.create", map[string]any{
		"student_id":    req.StudentID,
		"academic_year": req.AcademicYear,
		"term":          req.Term,
		"total_amount":  assignment.TotalAmount,
	})
}

func (h *AssignmentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	classID := r.URL.Query().Get("class_id")
	academicYear := r.URL.Query().Get("academic_year")
	term := r.URL.Query().Get("term")
	if err := h.ensureClassSchool(r, classID); err != nil {
		respondSchoolError(w, err)
		return
	}

	list, err := h.service.ListAssignments(r.Context(), classID, academicYear, term)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(list))
	for i := range list {
		resp = append(resp, assignmentResponse(&list[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *AssignmentHandler) handleReconcilePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeeStructureID string `json:"fee_structure_id"`
		IncludePaid    *bool  `json:"include_paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	includePaid := h.service.IncludePaidDefault()
	if req.IncludePaid != nil {
		includePaid = *req.IncludePaid
	}
	preview, err := h.service.PreviewReconciliation(r.Context(), req.FeeStructureID, includePaid)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(preview)
}

func (h *AssignmentHandler) handleReconcileApply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FeeStructureID string   `json:"fee_structure_id"`
		StudentIDs     []string `json:"student_ids"`
		IncludePaid    *bool    `json:"include_paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	includePaid := h.service.IncludePaidDefault()
	if req.IncludePaid != nil {
		includePaid = *req.IncludePaid
	}
	result, err := h.service.ApplyReconciliation(r.Context(), feeapp.ApplyRequest{
		FeeStructureID: req.FeeStructureID,
		StudentIDs:     req.StudentIDs,
		IncludePaid:    includePaid,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
	h.logAudit(r, "", req.FeeStructureID, "assignment.reconcile", map[string]any{
		"fee_structure_id": req.FeeStructureID,
		"include_paid":     includePaid,
		"updated":          result.Updated,
		"skipped":          result.Skipped,
		"errors":           len(result.Errors),
	})
}

func (h *AssignmentHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, id)
		return
	}
	if len(parts) == 2 && parts[1] == "invoice.pdf" && r.Method == http.MethodGet {
		h.handleInvoicePDF(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *AssignmentHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	assignment, err := h.service.GetAssignment(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if assignment == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(assignmentResponse(assignment))
}

func (h *AssignmentHandler) handleInvoicePDF(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveAssignmentExport("pdf", result, time.Since(start))
	}()

	assignment, err := h.service.GetAssignment(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	if assignment == nil {
		result = metrics.ResultError
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	data, err := BuildInvoicePDF(assignment)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, assignment.ClassID, assignment.ID, "assignment.export", map[string]any{"format": "pdf"})
}

func (h *AssignmentHandler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveAssignmentExport("xlsx", result, time.Since(start))
	}()

	classID := r.URL.Query().Get("class_id")
	academicYear := r.URL.Query().Get("academic_year")
	term := r.URL.Query().Get("term")
	if err := h.ensureClassSchool(r, classID); err != nil {
		result = metrics.ResultError
		respondSchoolError(w, err)
		return
	}

	list, err := h.service.ListAssignments(r.Context(), classID, academicYear, term)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := BuildClassBillingXLSX(classID, academicYear, term, list)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, classID, "", "assignment.export", map[string]any{"format": "xlsx", "term": term})
}

func assignmentResponse(a *fees.Assignment) map[string]any {
	items := make([]map[string]any, 0, len(a.FeeItems))
	for _, item := range a.FeeItems {
		items = append(items, map[string]any{
			"category_id":   item.CategoryID,
			"category_name": item.CategoryName,
			"fee_type":      item.FeeType,
			"amount":        item.Amount,
			"amount_paid":   item.AmountPaid,
			"balance":       item.Balance,
			"is_mandatory":  item.IsMandatory,
			"is_optional":   item.IsOptional,
			"is_selected":   item.IsSelected,
		})
	}
	resp := map[string]any{
		"id":               a.ID,
		"student_id":       a.StudentID,
		"student_name":     a.StudentName,
		"class_id":         a.ClassID,
		"fee_structure_id": a.FeeStructureID,
		"academic_year":    a.AcademicYear,
		"term":             a.Term,
		"fee_items":        items,
		"original_amount":  a.OriginalAmount,
		"discount_amount":  a.DiscountAmount,
		"total_amount":     a.TotalAmount,
		"amount_paid":      a.AmountPaid,
		"balance":          a.Balance,
		"status":           a.Status,
		"currency":         a.Currency,
	}
	if a.ScholarshipID != "" {
		resp["scholarship_id"] = a.ScholarshipID
		resp["scholarship_name"] = a.ScholarshipName
		resp["scholarship_type"] = a.ScholarshipType
		resp["scholarship_value"] = a.ScholarshipValue
	}
	if a.DueDate != "" {
		resp["due_date"] = a.DueDate
	}
	return resp
}

func (h *AssignmentHandler) ensureClassSchool(r *http.Request, classID string) error {
	if h.classChecker == nil || classID == "" {
		return nil
	}
	schoolID := auth.SchoolIDFromContext(r.Context())
	if schoolID == "" {
		return nil
	}
	return h.classChecker.EnsureClassSchool(r.Context(), schoolID, classID)
}

func (h *AssignmentHandler) logAudit(r *http.Request, classID, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	schoolID := auth.SchoolIDFromContext(r.Context())
	if schoolID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		SchoolID:      schoolID,
		Actor:         auth.SubjectFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        action,
		ResourceType:  "fee_assignment",
		ResourceID:    resourceID,
		ClassID:       classID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}

func respondSchoolError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrSchoolMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "school check failed", http.StatusInternalServerError)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, fees.ErrStructureNotFound),
		errors.Is(err, fees.ErrStudentNotFound),
		errors.Is(err, fees.ErrScholarshipNotFound),
		errors.Is(err, fees.ErrAssignmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, fees.ErrDuplicateAssignment):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auth.ErrSchoolMismatch):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
