package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dangerclosesec/partnerhub/internal/auth"
	"github.com/dangerclosesec/partnerhub/internal/authz"
	"github.com/dangerclosesec/partnerhub/internal/database"
	"github.com/dangerclosesec/partnerhub/internal/middleware"
	"github.com/dangerclosesec/partnerhub/internal/repository"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/dangerclosesec/partnerhub/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse battery"

type testAPI struct {
	router http.Handler
	users  *service.UserService
	auth   *service.AuthService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dir := t.TempDir()

	db, err := database.OpenSQLite(filepath.Join(dir, "handler_test.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	hasher := auth.NewPasswordHasherWithParams(1, 8*1024, 1)
	tokens := auth.NewTokenManager("handler-secret", 5*time.Minute, time.Hour)
	auditLogs := service.NewAuthzAuditLogService(repository.NewAuthzAuditLogRepository(db))
	policy := authz.NewPolicy(auditLogs, nil)
	files := storage.NewLocalFileStore(filepath.Join(dir, "media"), "/media/")

	userRepo := repository.NewUserRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	api := &testAPI{
		users: service.NewUserService(userRepo, repository.NewAccessRepository(db), hasher, policy, nil),
		auth:  service.NewAuthService(userRepo, hasher, tokens, nil),
	}
	partners := service.NewPartnerService(
		partnerRepo,
		repository.NewPartnerDepartmentRepository(db),
		repository.NewPartnerContentRepository(db),
		files,
		policy,
	)
	projects := service.NewProjectService(
		repository.NewProjectRepository(db),
		repository.NewProjectPartnerRepository(db),
		repository.NewMOURepository(db),
		partnerRepo,
		files,
		policy,
	)

	authHandler := NewAuthHandler(api.auth)
	userHandler := NewUserHandler(api.users)
	partnerHandler := NewPartnerHandler(partners)
	projectHandler := NewProjectHandler(projects)
	auditHandler := NewAuthzAuditLogHandler(auditLogs, policy)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", authHandler.PublicRoutes)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(api.auth))
			r.Get("/auth/me", authHandler.MeHandler)
			r.Route("/partners", partnerHandler.Routes)
			r.Route("/documents", partnerHandler.DocumentRoutes)
			r.Route("/projects", projectHandler.Routes)
			r.Route("/project-partners", projectHandler.ProjectPartnerRoutes)
			r.Route("/mous", projectHandler.MOURoutes)
			r.Route("/users", userHandler.Routes)
			r.Post("/admin/create_admin", userHandler.CreateAdmin)
			r.Route("/departments", userHandler.DepartmentRoutes)
			r.Route("/user_departments", userHandler.UserDepartmentRoutes)
			r.Route("/authz/audit-logs", auditHandler.Routes)
		})
	})
	api.router = r

	_, err = api.users.BootstrapAdmin(context.Background(), service.CreateUserInput{
		Username: "admin",
		Email:    "admin@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return api
}

// do sends a JSON request and decodes the response body into out when out
// is non-nil.
func (a *testAPI) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func (a *testAPI) login(t *testing.T, username string) string {
	t.Helper()
	var resp LoginResponse
	code := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	}, &resp)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, resp.Access)
	return resp.Access
}

func (a *testAPI) createMember(t *testing.T, admin, username string, departments ...string) {
	t.Helper()
	code := a.do(t, http.MethodPost, "/api/users", admin, map[string]any{
		"username":         username,
		"email":            username + "@example.com",
		"password":         testPassword,
		"department_names": departments,
	}, nil)
	require.Equal(t, http.StatusCreated, code)
}

func TestLoginAndMe(t *testing.T) {
	api := newTestAPI(t)

	var failed ErrorResponse
	code := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "wrong",
	}, &failed)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid username or password", failed.Error)

	token := api.login(t, "admin")

	var me MeView
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/auth/me", token, nil, &me))
	assert.Equal(t, "admin", me.Username)
	assert.True(t, me.IsSysAdmin)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/auth/me", "", nil, nil))
}

func TestRefreshIssuesNewPair(t *testing.T) {
	api := newTestAPI(t)

	var login LoginResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": testPassword,
	}, &login))

	var pair TokenResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh": login.Refresh,
	}, &pair))
	assert.NotEmpty(t, pair.Access)

	// An access token is not accepted as a refresh token.
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh": login.Access,
	}, nil))
}

func TestPartnerLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin")

	var programs DepartmentView
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/departments", admin, map[string]any{"name": "Programs"}, &programs))
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/departments", admin, map[string]any{"name": "Finance"}, nil))
	api.createMember(t, admin, "alice", "Programs")
	api.createMember(t, admin, "bob", "Finance")
	alice := api.login(t, "alice")
	bob := api.login(t, "bob")

	var partner PartnerView
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/partners", admin, map[string]any{
		"name":           "Acme Relief",
		"type":           "NGO",
		"department_ids": []string{programs.ID.String()},
	}, &partner))
	assert.Equal(t, "pending", string(partner.Status))
	assert.Equal(t, []string{"Programs"}, partner.Departments)
	require.NotNil(t, partner.CreatedBy)
	assert.Equal(t, "admin", *partner.CreatedBy)

	base := "/api/partners/" + partner.ID.String()

	var changed service.ChangeStatusOutput
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, base+"/change-status", alice, map[string]string{"status": "approved"}, &changed))
	assert.Equal(t, "approved", string(changed.Status))

	var same ErrorResponse
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, base+"/change-status", alice, map[string]string{"status": "approved"}, &same))
	assert.NotEmpty(t, same.Error)

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, base, bob, nil, nil))

	var list ListResponse[PartnerView]
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/partners?status=approved", bob, nil, &list))
	assert.Equal(t, int64(1), list.Count)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/partners?status=pending", alice, nil, &list))
	assert.Equal(t, int64(0), list.Count)

	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, base, alice, nil, nil))

	var detail PartnerDetailView
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, base, admin, nil, &detail))
	assert.Equal(t, "suspended", string(detail.Status))
	require.Len(t, detail.StatusHistory, 2)
	assert.Equal(t, "suspended", string(detail.StatusHistory[0].NewStatus))
	require.NotNil(t, detail.StatusHistory[0].ChangedBy)
	assert.Equal(t, "alice", *detail.StatusHistory[0].ChangedBy)

	var history []StatusHistoryView
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, base+"/status-history", alice, nil, &history))
	assert.Len(t, history, 2)
}

func TestPartnerValidationAndNotFound(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin")

	var resp ErrorResponse
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/api/partners", admin, map[string]any{"name": "X", "type": "BANK"}, &resp))
	assert.NotContains(t, resp.Error, "validation error:")

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/partners/not-a-uuid", admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/partners/00000000-0000-0000-0000-000000000001", admin, nil, nil))
}

func TestDocumentUploadMultipart(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin")

	var partner PartnerView
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/partners", admin, map[string]any{"name": "Docs Co", "type": "CORPORATE"}, &partner))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("file_type", "registration"))
	fw, err := mw.CreateFormFile("file", "certificate.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/partners/"+partner.ID.String()+"/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doc DocumentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "registration", doc.FileType)
	assert.Contains(t, doc.FileURL, "/media/")

	var fetched DocumentView
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/documents/"+doc.ID.String(), admin, nil, &fetched))
	assert.Equal(t, doc.ID, fetched.ID)

	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/documents/"+doc.ID.String(), admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/documents/"+doc.ID.String(), admin, nil, nil))
}

func TestProjectPartnerConflict(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin")

	var partner PartnerView
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/partners", admin, map[string]any{"name": "Builders", "type": "OTHER"}, &partner))
	var project struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/projects", admin, map[string]any{"name": "Wells"}, &project))

	link := map[string]any{"project": project.ID, "partner": partner.ID.String(), "role": "lead"}
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/project-partners", admin, link, nil))
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/api/project-partners", admin, link, nil))

	var links struct {
		Count int64 `json:"count"`
	}
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/project-partners?project="+project.ID, admin, nil, &links))
	assert.Equal(t, int64(1), links.Count)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/project-partners?partner=nope", admin, nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/project-partners?status=expired", admin, nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/mous?status=inactive", admin, nil, nil))

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/api/mous", admin, map[string]any{
		"project":    project.ID,
		"partner":    partner.ID.String(),
		"title":      "Backwards",
		"start_date": "2024-06-01",
		"end_date":   "2024-01-01",
	}, nil))
}

func TestUserAdministration(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin")

	var programs DepartmentView
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/departments", admin, map[string]any{"name": "Programs"}, &programs))
	api.createMember(t, admin, "carol")
	carol := api.login(t, "carol")

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/api/admin/create_admin", carol, map[string]any{
		"username": "mallory",
		"email":    "mallory@example.com",
		"password": testPassword,
	}, nil))

	var me MeView
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/auth/me", carol, nil, &me))

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/user_departments", admin, map[string]string{
		"user_id":       me.ID.String(),
		"department_id": programs.ID.String(),
	}, nil))

	var departments []DepartmentView
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/user_departments?user_id="+me.ID.String(), carol, nil, &departments))
	require.Len(t, departments, 1)
	assert.Equal(t, "Programs", departments[0].Name)

	path := fmt.Sprintf("/api/user_departments?user_id=%s&department_id=%s", me.ID, programs.ID)
	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, path, admin, nil, nil))

	var deleted MessageResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodDelete, "/api/users/"+me.ID.String(), admin, nil, &deleted))
	assert.Equal(t, "User 'carol' has been deleted successfully.", deleted.Detail)
}

func TestAuditLogsAdminOnly(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login(t, "admin")
	api.createMember(t, admin, "dave")
	dave := api.login(t, "dave")

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/authz/audit-logs", dave, nil, nil))

	var logs struct {
		Count   int64            `json:"count"`
		Results []map[string]any `json:"results"`
	}
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/authz/audit-logs?result=false", admin, nil, &logs))
	assert.GreaterOrEqual(t, logs.Count, int64(1))
}
