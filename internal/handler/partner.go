package handler

import (
	"net/http"
	"strings"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/middleware"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxUploadSize bounds multipart bodies for document uploads.
const maxUploadSize = 32 << 20

type PartnerHandler struct {
	partners *service.PartnerService
}

func NewPartnerHandler(partners *service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partners: partners}
}

// Routes mounts the partner endpoints, including nested documents and
// profile, on r.
func (h *PartnerHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Patch("/", h.PartialUpdate)
		r.Delete("/", h.Destroy)

		r.Post("/change-status", h.ChangeStatus)
		r.Post("/change-risk", h.ChangeRisk)
		r.Get("/status-history", h.StatusHistory)
		r.Get("/risk-history", h.RiskHistory)

		r.Get("/departments", h.Departments)
		r.Post("/departments", h.AssignDepartments)
		r.Delete("/departments/{departmentID}", h.UnassignDepartment)

		r.Get("/profile", h.Profile)
		r.Put("/profile", h.SaveProfile)

		r.Get("/documents", h.Documents)
		r.Post("/documents", h.CreateDocument)
		r.Get("/documents/{documentID}", h.Document)
		r.Delete("/documents/{documentID}", h.DeleteDocument)
	})
}

// DocumentRoutes mounts the standalone /documents endpoints.
func (h *PartnerHandler) DocumentRoutes(r chi.Router) {
	r.Get("/{documentID}", h.Document)
	r.Delete("/{documentID}", h.DeleteDocument)
}

func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pagination(r)
	out, err := h.partners.List(r.Context(), middleware.UserFrom(r.Context()), service.ListPartnersInput{
		Type:      q.Get("type"),
		Status:    q.Get("status"),
		RiskLevel: q.Get("risk_level"),
		Search:    q.Get("search"),
		Ordering:  q.Get("ordering"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ListResponse[PartnerView]{
		Count:   out.Count,
		Results: mapViews(out.Partners, newPartnerView),
	})
}

func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreatePartnerInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	partner, err := h.partners.Create(r.Context(), middleware.UserFrom(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, newPartnerView(partner))
}

func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	partner, err := h.partners.Get(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newPartnerDetailView(partner))
}

func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *PartnerHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *PartnerHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.UpdatePartnerInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	partner, err := h.partners.Update(r.Context(), middleware.UserFrom(r.Context()), id, input, partial)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newPartnerView(partner))
}

// Destroy suspends the partner; rows are never removed over HTTP.
func (h *PartnerHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.partners.Destroy(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PartnerHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.ChangeStatusInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	out, err := h.partners.ChangeStatus(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (h *PartnerHandler) ChangeRisk(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.ChangeRiskInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	out, err := h.partners.ChangeRisk(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (h *PartnerHandler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	rows, err := h.partners.StatusHistory(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newStatusHistoryViews(rows))
}

func (h *PartnerHandler) RiskHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	rows, err := h.partners.RiskHistory(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newRiskHistoryViews(rows))
}

func (h *PartnerHandler) Departments(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	rows, err := h.partners.Departments(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newAssignmentViews(rows))
}

func (h *PartnerHandler) AssignDepartments(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.AssignDepartmentsInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	created, err := h.partners.AssignDepartments(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, newAssignmentViews(created))
}

func (h *PartnerHandler) UnassignDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	departmentID, err := uuidParam(r, "departmentID")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.partners.UnassignDepartment(r.Context(), middleware.UserFrom(r.Context()), id, departmentID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PartnerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	profile, err := h.partners.Profile(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *PartnerHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.ProfileInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	profile, err := h.partners.SaveProfile(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *PartnerHandler) Documents(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	docs, err := h.partners.Documents(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newDocumentViews(docs))
}

// CreateDocument accepts either a multipart form with "file" and
// "file_type" fields or a JSON body with file_type and file_url.
func (h *PartnerHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	var input service.CreateDocumentInput
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			respondWithServiceError(w, r, domain.Validationf("invalid multipart form"))
			return
		}
		input.FileType = r.FormValue("file_type")
		input.FileURL = r.FormValue("file_url")
		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			input.File = file
			input.FileName = header.Filename
		}
	} else if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	doc, err := h.partners.CreateDocument(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, newDocumentView(doc))
}

// documentScope returns the partner id from the nested route, or uuid.Nil
// on the standalone route.
func documentScope(r *http.Request) (uuid.UUID, error) {
	if chi.URLParam(r, "id") == "" {
		return uuid.Nil, nil
	}
	return uuidParam(r, "id")
}

func (h *PartnerHandler) Document(w http.ResponseWriter, r *http.Request) {
	scope, err := documentScope(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	documentID, err := uuidParam(r, "documentID")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	doc, err := h.partners.Document(r.Context(), middleware.UserFrom(r.Context()), scope, documentID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newDocumentView(doc))
}

func (h *PartnerHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	scope, err := documentScope(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	documentID, err := uuidParam(r, "documentID")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	if err := h.partners.DeleteDocument(r.Context(), middleware.UserFrom(r.Context()), scope, documentID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
