package handler

import (
	"time"

	"github.com/dangerclosesec/partnerhub/internal/model"
	"github.com/dangerclosesec/partnerhub/internal/service"
	"github.com/google/uuid"
)

// Response shapes. Related users and departments are rendered by name.

type PartnerView struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Type        model.PartnerType   `json:"type"`
	Status      model.PartnerStatus `json:"status"`
	RiskLevel   model.RiskLevel     `json:"risk_level"`
	CreatedBy   *string             `json:"created_by"`
	Departments []string            `json:"departments"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type PartnerDetailView struct {
	PartnerView
	Profile       *model.PartnerProfile `json:"profile"`
	Documents     []DocumentView        `json:"documents"`
	StatusHistory []StatusHistoryView   `json:"status_history"`
	RiskHistory   []RiskHistoryView     `json:"risk_history"`
}

type DocumentView struct {
	ID         uuid.UUID `json:"id"`
	FileType   string    `json:"file_type"`
	FileURL    string    `json:"file_url"`
	UploadedBy *string   `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type StatusHistoryView struct {
	ID        uuid.UUID           `json:"id"`
	OldStatus model.PartnerStatus `json:"old_status"`
	NewStatus model.PartnerStatus `json:"new_status"`
	ChangedBy *string             `json:"changed_by"`
	ChangedAt time.Time           `json:"changed_at"`
}

type RiskHistoryView struct {
	ID        uuid.UUID       `json:"id"`
	OldRisk   model.RiskLevel `json:"old_risk"`
	NewRisk   model.RiskLevel `json:"new_risk"`
	ChangedBy *string         `json:"changed_by"`
	ChangedAt time.Time       `json:"changed_at"`
}

type AssignmentView struct {
	ID         uuid.UUID `json:"id"`
	Department uuid.UUID `json:"department"`
	Name       string    `json:"department_name"`
	AssignedAt time.Time `json:"assigned_at"`
}

type ListResponse[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

func username(u *model.User) *string {
	if u == nil {
		return nil
	}
	name := u.String()
	return &name
}

func newPartnerView(p *model.Partner) PartnerView {
	departments := make([]string, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		departments = append(departments, a.Department.Name)
	}
	return PartnerView{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		Status:      p.Status,
		RiskLevel:   p.RiskLevel,
		CreatedBy:   username(p.CreatedBy),
		Departments: departments,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func newPartnerDetailView(p *model.Partner) PartnerDetailView {
	return PartnerDetailView{
		PartnerView:   newPartnerView(p),
		Profile:       p.Profile,
		Documents:     newDocumentViews(p.Documents),
		StatusHistory: newStatusHistoryViews(p.StatusHistory),
		RiskHistory:   newRiskHistoryViews(p.RiskHistory),
	}
}

func newDocumentView(d *model.PartnerDocument) DocumentView {
	return DocumentView{
		ID:         d.ID,
		FileType:   d.FileType,
		FileURL:    d.FileURL,
		UploadedBy: username(d.UploadedBy),
		UploadedAt: d.UploadedAt,
	}
}

func newDocumentViews(docs []model.PartnerDocument) []DocumentView {
	views := make([]DocumentView, 0, len(docs))
	for i := range docs {
		views = append(views, newDocumentView(&docs[i]))
	}
	return views
}

func newStatusHistoryViews(rows []model.StatusHistory) []StatusHistoryView {
	views := make([]StatusHistoryView, 0, len(rows))
	for _, h := range rows {
		views = append(views, StatusHistoryView{
			ID:        h.ID,
			OldStatus: h.OldStatus,
			NewStatus: h.NewStatus,
			ChangedBy: username(h.ChangedBy),
			ChangedAt: h.ChangedAt,
		})
	}
	return views
}

func newRiskHistoryViews(rows []model.RiskLevelHistory) []RiskHistoryView {
	views := make([]RiskHistoryView, 0, len(rows))
	for _, h := range rows {
		views = append(views, RiskHistoryView{
			ID:        h.ID,
			OldRisk:   h.OldRisk,
			NewRisk:   h.NewRisk,
			ChangedBy: username(h.ChangedBy),
			ChangedAt: h.ChangedAt,
		})
	}
	return views
}

func newAssignmentViews(rows []model.PartnerDepartment) []AssignmentView {
	views := make([]AssignmentView, 0, len(rows))
	for _, a := range rows {
		views = append(views, AssignmentView{
			ID:         a.ID,
			Department: a.DepartmentID,
			Name:       a.Department.Name,
			AssignedAt: a.AssignedAt,
		})
	}
	return views
}

type UserView struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber *string   `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
	IsStaff     bool      `json:"is_staff"`
	IsSysAdmin  bool      `json:"is_sys_admin"`
	Role        *string   `json:"role"`
	Departments []string  `json:"departments"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

type MeView struct {
	UserView
	EffectiveRoles       []string `json:"effective_roles"`
	EffectivePermissions []string `json:"effective_permissions"`
}

func newUserView(u *model.User) UserView {
	view := UserView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSysAdmin:  u.IsSysAdmin,
		Departments: make([]string, 0, len(u.Departments)),
		Permissions: make([]string, 0, len(u.Permissions)),
		CreatedAt:   u.CreatedAt,
	}
	if u.Role != nil {
		view.Role = &u.Role.Name
	}
	for _, d := range u.Departments {
		view.Departments = append(view.Departments, d.Name)
	}
	for _, p := range u.Permissions {
		view.Permissions = append(view.Permissions, p.Name)
	}
	return view
}

func newMeView(me *service.MeOutput) MeView {
	return MeView{
		UserView:             newUserView(me.User),
		EffectiveRoles:       me.EffectiveRoles,
		EffectivePermissions: me.EffectivePermissions,
	}
}

type RoleView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Permissions []string  `json:"permissions"`
}

func newRoleView(r *model.Role) RoleView {
	view := RoleView{ID: r.ID, Name: r.Name, Description: r.Description, Permissions: make([]string, 0, len(r.Permissions))}
	for _, p := range r.Permissions {
		view.Permissions = append(view.Permissions, p.Name)
	}
	return view
}

type DepartmentView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Roles       []string  `json:"roles"`
}

func newDepartmentView(d *model.Department) DepartmentView {
	view := DepartmentView{ID: d.ID, Name: d.Name, Description: d.Description, Roles: make([]string, 0, len(d.Roles))}
	for _, r := range d.Roles {
		view.Roles = append(view.Roles, r.Name)
	}
	return view
}

// mapViews converts a slice of records with fn.
func mapViews[M any, V any](rows []M, fn func(*M) V) []V {
	views := make([]V, 0, len(rows))
	for i := range rows {
		views = append(views, fn(&rows[i]))
	}
	return views
}
