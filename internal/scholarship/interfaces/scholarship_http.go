package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"schoolfin-cloud/internal/audit"
	"schoolfin-cloud/internal/auth"
	scholarship "schoolfin-cloud/internal/scholarship/domain"
)

// ScholarshipHandler handles scholarship APIs.
type ScholarshipHandler struct {
	repo        scholarship.Repository
	auditLogger audit.Logger
}

// NewScholarshipHandler constructs a handler.
func NewScholarshipHandler(repo scholarship.Repository, auditLogger audit.Logger) (*ScholarshipHandler, error) {
	if repo == nil {
		return nil, errors.New("scholarship handler: nil repo")
	}
	return &ScholarshipHandler{repo: repo, auditLogger: auditLogger}, nil
}

// ServeHTTP handles routes under /api/v1/scholarships.
func (h *ScholarshipHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/scholarships" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case path == "/api/v1/scholarships" && r.Method == http.MethodPost:
		h.handleSave(w, r)
	case strings.HasPrefix(path, "/api/v1/scholarships/") && r.Method == http.MethodGet:
		h.handleGet(w, r, strings.TrimPrefix(path, "/api/v1/scholarships/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ScholarshipHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListActive(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := make([]map[string]any, 0, len(list))
	for i := range list {
		resp = append(resp, scholarshipResponse(&list[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *ScholarshipHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.repo.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if s == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scholarshipResponse(s))
}

func (h *ScholarshipHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID                    string   `json:"id"`
		Name                  string   `json:"name"`
		Type                  string   `json:"type"`
		PercentageOff         float64  `json:"percentage_off"`
		FixedAmountOff        float64  `json:"fixed_amount_off"`
		MaxDiscountPerStudent float64  `json:"max_discount_per_student"`
		ApplicableTo          string   `json:"applicable_to"`
		ClassIDs              []string `json:"class_ids"`
		StudentIDs            []string `json:"student_ids"`
		FeeTypeInclude        []string `json:"fee_type_include"`
		FeeTypeExclude        []string `json:"fee_type_exclude"`
		StartDate             string   `json:"start_date"`
		EndDate               string   `json:"end_date"`
		AcademicYear          string   `json:"academic_year"`
		Term                  string   `json:"term"`
		Status                string   `json:"status"`
		MaxBeneficiaries      int      `json:"max_beneficiaries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	s := &scholarship.Scholarship{
		ID:                    req.ID,
		Name:                  req.Name,
		Type:                  req.Type,
		PercentageOff:         req.PercentageOff,
		FixedAmountOff:        req.FixedAmountOff,
		MaxDiscountPerStudent: req.MaxDiscountPerStudent,
		ApplicableTo:          req.ApplicableTo,
		ClassIDs:              req.ClassIDs,
		StudentIDs:            req.StudentIDs,
		FeeTypeInclude:        req.FeeTypeInclude,
		FeeTypeExclude:        req.FeeTypeExclude,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		AcademicYear:          req.AcademicYear,
		Term:                  req.Term,
		Status:                req.Status,
		CreatedBy:             auth.SubjectFromContext(r.Context()),
		MaxBeneficiaries:      req.MaxBeneficiaries,
	}
	if s.Status == "" {
		s.Status = scholarship.StatusActive
	}
	if s.CreatedBy == "" {
		s.CreatedBy = "system"
	}
	if err := h.repo.Save(r.Context(), s); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"id": s.ID})
	h.logAudit(r, s.ID, "scholarship.save", map[string]any{
		"type":          s.Type,
		"applicable_to": s.ApplicableTo,
		"status":        s.Status,
	})
}

func scholarshipResponse(s *scholarship.Scholarship) map[string]any {
	resp := map[string]any{
		"id":            s.ID,
		"name":          s.Name,
		"type":          s.Type,
		"applicable_to": s.ApplicableTo,
		"start_date":    s.StartDate,
		"status":        s.Status,
	}
	if s.PercentageOff != 0 {
		resp["percentage_off"] = s.PercentageOff
	}
	if s.FixedAmountOff != 0 {
		resp["fixed_amount_off"] = s.FixedAmountOff
	}
	if s.MaxDiscountPerStudent != 0 {
		resp["max_discount_per_student"] = s.MaxDiscountPerStudent
	}
	if len(s.ClassIDs) > 0 {
		resp["class_ids"] = s.ClassIDs
	}
	if len(s.StudentIDs) > 0 {
		resp["student_ids"] = s.StudentIDs
	}
	if s.EndDate != "" {
		resp["end_date"] = s.EndDate
	}
	if s.AcademicYear != "" {
		resp["academic_year"] = s.AcademicYear
	}
	if s.Term != "" {
		resp["term"] = s.Term
	}
	if s.MaxBeneficiaries != 0 {
		resp["max_beneficiaries"] = s.MaxBeneficiaries
		resp["current_beneficiaries"] = s.CurrentBeneficiaries
	}
	return resp
}

func (h *ScholarshipHandler) logAudit(r *http.Request, resourceID, action string, meta map[string]any) {
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
		ResourceType:  "scholarship",
		ResourceID:    resourceID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}
