package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"schoolfin-cloud/internal/audit"
	"schoolfin-cloud/internal/auth"
	catalog "schoolfin-cloud/internal/catalog/domain"
)

// CatalogHandler handles fee structure and category APIs. These are
// thin wrappers over the repositories, the fee engine consumes the same
// records through its readers.
type CatalogHandler struct {
	structures  catalog.StructureRepository
	categories  catalog.CategoryRepository
	auditLogger audit.Logger
}

// NewCatalogHandler constructs a handler.
func NewCatalogHandler(structures catalog.StructureRepository, categories catalog.CategoryRepository, auditLogger audit.Logger) (*CatalogHandler, error) {
	if structures == nil {
		return nil, errors.New("catalog handler: nil structure repo")
	}
	if categories == nil {
		return nil, errors.New("catalog handler: nil category repo")
	}
	return &CatalogHandler{structures: structures, categories: categories, auditLogger: auditLogger}, nil
}

// ServeHTTP handles routes under /api/v1/fee-structures and
// /api/v1/fee-categories.
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/fee-structures" && r.Method == http.MethodGet:
		h.handleStructureLookup(w, r)
	case path == "/api/v1/fee-structures" && r.Method == http.MethodPost:
		h.handleStructureSave(w, r)
	case strings.HasPrefix(path, "/api/v1/fee-structures/") && r.Method == http.MethodGet:
		h.handleStructureGet(w, r, strings.TrimPrefix(path, "/api/v1/fee-structures/"))
	case path == "/api/v1/fee-categories" && r.Method == http.MethodGet:
		h.handleCategoryList(w, r)
	case path == "/api/v1/fee-categories" && r.Method == http.MethodPost:
		h.handleCategorySave(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *CatalogHandler) handleStructureLookup(w http.ResponseWriter, r *http.Request) {
	classID := r.URL.Query().Get("class_id")
	academicYear := r.URL.Query().Get("academic_year")
	term := r.URL.Query().Get("term")
	if classID == "" || academicYear == "" || term == "" {
		http.Error(w, "class_id, academic_year and term required", http.StatusBadRequest)
		return
	}
	structure, err := h.structures.GetByClassAndTerm(r.Context(), classID, academicYear, term)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if structure == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	respondStructure(w, structure)
}

func (h *CatalogHandler) handleStructureGet(w http.ResponseWriter, r *http.Request, id string) {
	structure, err := h.structures.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if structure == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	respondStructure(w, structure)
}

type feeItemPayload struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	FeeType      string  `json:"fee_type"`
	Amount       float64 `json:"amount"`
	IsMandatory  bool    `json:"is_mandatory"`
	IsOptional   bool    `json:"is_optional"`
}

func (h *CatalogHandler) handleStructureSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID           string           `json:"id"`
		ClassID      string           `json:"class_id"`
		AcademicYear string           `json:"academic_year"`
		Term         string           `json:"term"`
		FeeItems     []feeItemPayload `json:"fee_items"`
		Active       bool             `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	items := make([]catalog.FeeItem, 0, len(req.FeeItems))
	for _, item := range req.FeeItems {
		items = append(items, catalog.FeeItem(item))
	}
	structure := &catalog.FeeStructure{
		ID:           req.ID,
		ClassID:      req.ClassID,
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
		FeeItems:     items,
		Active:       req.Active,
	}
	if err := h.structures.Save(r.Context(), structure); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondStructure(w, structure)
	h.logAudit(r, "fee_structure", structure.ID, "structure.save", map[string]any{
		"class_id":      structure.ClassID,
		"academic_year": structure.AcademicYear,
		"term":          structure.Term,
		"items":         len(structure.FeeItems),
	})
}

func (h *CatalogHandler) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.ListActive(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	resp := make([]map[string]any, 0, len(list))
	for _, c := range list {
		resp = append(resp, map[string]any{
			"id":       c.ID,
			"name":     c.Name,
			"fee_type": c.FeeType,
			"active":   c.Active,
		})
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *CatalogHandler) handleCategorySave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		FeeType string `json:"fee_type"`
		Active  bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	category := &catalog.FeeCategory{
		ID:      req.ID,
		Name:    req.Name,
		FeeType: req.FeeType,
		Active:  req.Active,
	}
	if err := h.categories.Save(r.Context(), category); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"id": category.ID})
	h.logAudit(r, "fee_category", category.ID, "category.save", map[string]any{
		"name":     category.Name,
		"fee_type": category.FeeType,
	})
}

func respondStructure(w http.ResponseWriter, s *catalog.FeeStructure) {
	items := make([]map[string]any, 0, len(s.FeeItems))
	for _, item := range s.FeeItems {
		items = append(items, map[string]any{
			"category_id":   item.CategoryID,
			"category_name": item.CategoryName,
			"fee_type":      item.FeeType,
			"amount":        item.Amount,
			"is_mandatory":  item.IsMandatory,
			"is_optional":   item.IsOptional,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":            s.ID,
		"class_id":      s.ClassID,
		"academic_year": s.AcademicYear,
		"term":          s.Term,
		"fee_items":     items,
		"total_amount":  s.TotalAmount(),
		"active":        s.Active,
	})
}

func (h *CatalogHandler) logAudit(r *http.Request, resourceType, resourceID, action string, meta map[string]any) {
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
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}
