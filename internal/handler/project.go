package handler

import (
	"net/http"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/dangerclosesec/partnerhub/internal/middleware"
	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) Routes(r chi.Router) {
	r.Get("/", h.ListProjects)
	r.Post("/", h.CreateProject)
	r.Get("/{id}", h.GetProject)
	r.Put("/{id}", h.UpdateProject)
	r.Delete("/{id}", h.DeleteProject)
}

func (h *ProjectHandler) ProjectPartnerRoutes(r chi.Router) {
	r.Get("/", h.ListProjectPartners)
	r.Post("/", h.CreateProjectPartner)
	r.Get("/{id}", h.GetProjectPartner)
	r.Put("/{id}", h.UpdateProjectPartner)
	r.Delete("/{id}", h.DeleteProjectPartner)
}

func (h *ProjectHandler) MOURoutes(r chi.Router) {
	r.Get("/", h.ListMOUs)
	r.Post("/", h.CreateMOU)
	r.Get("/{id}", h.GetMOU)
	r.Put("/{id}", h.UpdateMOU)
	r.Delete("/{id}", h.DeleteMOU)
	r.Post("/{id}/upload", h.UploadMOUDocument)
}

// Projects

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	out, err := h.projects.ListProjects(r.Context(), middleware.UserFrom(r.Context()), service.ListProjectsInput{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ListResponse[model.Project]{Count: out.Count, Results: out.Projects})
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var input service.ProjectInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	project, err := h.projects.CreateProject(r.Context(), middleware.UserFrom(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	project, err := h.projects.GetProject(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.ProjectInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	project, err := h.projects.UpdateProject(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.projects.DeleteProject(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Project partners

// linkFilter reads the project, partner and status query filters shared by
// the project-partner and MOU listings.
func linkFilter(r *http.Request) (service.ListLinksInput, error) {
	projectID, err := optionalUUIDQuery(r, "project")
	if err != nil {
		return service.ListLinksInput{}, err
	}
	partnerID, err := optionalUUIDQuery(r, "partner")
	if err != nil {
		return service.ListLinksInput{}, err
	}
	limit, offset := pagination(r)
	return service.ListLinksInput{
		ProjectID: projectID,
		PartnerID: partnerID,
		Status:    r.URL.Query().Get("status"),
		Limit:     limit,
		Offset:    offset,
	}, nil
}

func (h *ProjectHandler) ListProjectPartners(w http.ResponseWriter, r *http.Request) {
	filter, err := linkFilter(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	out, err := h.projects.ListProjectPartners(r.Context(), middleware.UserFrom(r.Context()), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ListResponse[model.ProjectPartner]{Count: out.Count, Results: out.ProjectPartners})
}

func (h *ProjectHandler) CreateProjectPartner(w http.ResponseWriter, r *http.Request) {
	var input service.ProjectPartnerInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	link, err := h.projects.CreateProjectPartner(r.Context(), middleware.UserFrom(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, link)
}

func (h *ProjectHandler) GetProjectPartner(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	link, err := h.projects.GetProjectPartner(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, link)
}

func (h *ProjectHandler) UpdateProjectPartner(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.ProjectPartnerInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	link, err := h.projects.UpdateProjectPartner(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, link)
}

func (h *ProjectHandler) DeleteProjectPartner(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.projects.DeleteProjectPartner(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MOUs

func (h *ProjectHandler) ListMOUs(w http.ResponseWriter, r *http.Request) {
	filter, err := linkFilter(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	out, err := h.projects.ListMOUs(r.Context(), middleware.UserFrom(r.Context()), filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ListResponse[model.MOU]{Count: out.Count, Results: out.MOUs})
}

func (h *ProjectHandler) CreateMOU(w http.ResponseWriter, r *http.Request) {
	var input service.MOUInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	mou, err := h.projects.CreateMOU(r.Context(), middleware.UserFrom(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, mou)
}

func (h *ProjectHandler) GetMOU(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	mou, err := h.projects.GetMOU(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, mou)
}

func (h *ProjectHandler) UpdateMOU(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.MOUInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	mou, err := h.projects.UpdateMOU(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, mou)
}

// UploadMOUDocument stores the multipart "file" field as the signed MOU.
func (h *ProjectHandler) UploadMOUDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondWithServiceError(w, r, domain.Validationf("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithServiceError(w, r, domain.Validationf("file is required"))
		return
	}
	defer file.Close()

	mou, err := h.projects.UploadMOUDocument(r.Context(), middleware.UserFrom(r.Context()), id, header.Filename, file)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, mou)
}

func (h *ProjectHandler) DeleteMOU(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.projects.DeleteMOU(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
