package handler

import (
	"fmt"
	"net/http"

	"github.com/dangerclosesec/partnerhub/internal/middleware"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/", h.ListUsers)
	r.Post("/", h.CreateUser)
	r.Get("/{id}", h.GetUser)
	r.Put("/{id}", h.UpdateUser)
	r.Patch("/{id}", h.UpdateUser)
	r.Delete("/{id}", h.DeleteUser)
}

func (h *UserHandler) RoleRoutes(r chi.Router) {
	r.Get("/", h.ListRoles)
	r.Post("/", h.CreateRole)
	r.Get("/{id}", h.GetRole)
	r.Put("/{id}", h.UpdateRole)
	r.Delete("/{id}", h.DeleteRole)
}

func (h *UserHandler) PermissionRoutes(r chi.Router) {
	r.Get("/", h.ListPermissions)
	r.Post("/", h.CreatePermission)
	r.Get("/{id}", h.GetPermission)
	r.Put("/{id}", h.UpdatePermission)
	r.Delete("/{id}", h.DeletePermission)
}

func (h *UserHandler) DepartmentRoutes(r chi.Router) {
	r.Get("/", h.ListDepartments)
	r.Post("/", h.CreateDepartment)
	r.Get("/{id}", h.GetDepartment)
	r.Put("/{id}", h.UpdateDepartment)
	r.Delete("/{id}", h.DeleteDepartment)
}

func (h *UserHandler) UserDepartmentRoutes(r chi.Router) {
	r.Get("/", h.UserDepartments)
	r.Post("/", h.AddUserToDepartment)
	r.Delete("/", h.RemoveUserFromDepartment)
}

// Users

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	out, err := h.users.ListUsers(r.Context(), middleware.UserFrom(r.Context()), limit, offset)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	results := make([]UserView, 0, len(out.Users))
	for _, u := range out.Users {
		results = append(results, newUserView(u))
	}
	respondWithJSON(w, http.StatusOK, ListResponse[UserView]{Count: out.Count, Results: results})
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input service.CreateUserInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), middleware.UserFrom(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, newUserView(user))
}

// CreateAdmin creates a system administrator. Only administrators may call it.
func (h *UserHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var input service.CreateUserInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	user, err := h.users.CreateAdmin(r.Context(), middleware.UserFrom(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, newUserView(user))
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	user, err := h.users.GetUser(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newUserView(user))
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.UpdateUserInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newUserView(user))
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	actor := middleware.UserFrom(r.Context())

	user, err := h.users.GetUser(r.Context(), actor, id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.users.DeleteUser(r.Context(), actor, id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, MessageResponse{
		BaseResponse: BaseResponse{Ok: true},
		Detail:       fmt.Sprintf("User '%s' has been deleted successfully.", user.Username),
	})
}

// User departments

// userDepartmentInput reads user_id and department_id from the JSON body,
// falling back to the query string for bodiless DELETE requests.
func userDepartmentInput(r *http.Request) (service.UserDepartmentInput, error) {
	var input service.UserDepartmentInput
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &input); err != nil {
			return input, err
		}
		return input, nil
	}
	userID, err := optionalUUIDQuery(r, "user_id")
	if err != nil {
		return input, err
	}
	departmentID, err := optionalUUIDQuery(r, "department_id")
	if err != nil {
		return input, err
	}
	if userID != nil {
		input.UserID = *userID
	}
	if departmentID != nil {
		input.DepartmentID = *departmentID
	}
	return input, nil
}

// UserDepartments lists the departments of ?user_id=, defaulting to the
// caller.
func (h *UserHandler) UserDepartments(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFrom(r.Context())
	userID, err := optionalUUIDQuery(r, "user_id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	target := uuid.Nil
	if userID != nil {
		target = *userID
	} else if actor != nil {
		target = actor.ID
	}

	departments, err := h.users.UserDepartments(r.Context(), actor, target)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, mapViews(departments, newDepartmentView))
}

func (h *UserHandler) AddUserToDepartment(w http.ResponseWriter, r *http.Request) {
	input, err := userDepartmentInput(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.users.AddUserToDepartment(r.Context(), middleware.UserFrom(r.Context()), input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, MessageResponse{
		BaseResponse: BaseResponse{Ok: true},
		Detail:       "User added to department.",
	})
}

func (h *UserHandler) RemoveUserFromDepartment(w http.ResponseWriter, r *http.Request) {
	input, err := userDepartmentInput(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.users.RemoveUserFromDepartment(r.Context(), middleware.UserFrom(r.Context()), input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Roles

func (h *UserHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.users.ListRoles(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, mapViews(roles, newRoleView))
}

func (h *UserHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	role, err := h.users.GetRole(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newRoleView(role))
}

func (h *UserHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var input service.RoleInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	role, err := h.users.CreateRole(r.Context(), middleware.UserFrom(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, newRoleView(role))
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.RoleInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	role, err := h.users.UpdateRole(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newRoleView(role))
}

func (h *UserHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.users.DeleteRole(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Permissions

func (h *UserHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.users.ListPermissions(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, permissions)
}

func (h *UserHandler) GetPermission(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	permission, err := h.users.GetPermission(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, permission)
}

func (h *UserHandler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var input service.PermissionInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	permission, err := h.users.CreatePermission(r.Context(), middleware.UserFrom(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, permission)
}

func (h *UserHandler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.PermissionInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	permission, err := h.users.UpdatePermission(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, permission)
}

func (h *UserHandler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.users.DeletePermission(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Departments

func (h *UserHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.users.ListDepartments(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, mapViews(departments, newDepartmentView))
}

func (h *UserHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	department, err := h.users.GetDepartment(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newDepartmentView(department))
}

func (h *UserHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var input service.DepartmentInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	department, err := h.users.CreateDepartment(r.Context(), middleware.UserFrom(r.Context()), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, newDepartmentView(department))
}

func (h *UserHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	var input service.DepartmentInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	department, err := h.users.UpdateDepartment(r.Context(), middleware.UserFrom(r.Context()), id, input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newDepartmentView(department))
}

func (h *UserHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if err := h.users.DeleteDepartment(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
