package models

import (
	"time"

	"gorm.io/datatypes"
)

// Token roles carried in bearer claims.
const (
	RoleRegistrar = "registrar"
	RoleFaculty   = "faculty"
)

// Permissions gates what a registrar account may do in the admin UI.
type Permissions struct {
	CanCreateAccounts bool `json:"canCreateAccounts"`
	CanManageStudents bool `json:"canManageStudents"`
	CanViewDashboard  bool `json:"canViewDashboard"`
	CanViewStudents   bool `json:"canViewStudents"`
	CanViewAuditLogs  bool `json:"canViewAuditLogs"`
	CanViewRecycleBin bool `json:"canViewRecycleBin"`
}

// AdminPermissions grants everything.
var AdminPermissions = Permissions{
	CanCreateAccounts: true,
	CanManageStudents: true,
	CanViewDashboard:  true,
	CanViewStudents:   true,
	CanViewAuditLogs:  true,
	CanViewRecycleBin: true,
}

// UserPermissions is the read-mostly default for faculty accounts.
var UserPermissions = Permissions{
	CanViewDashboard: true,
	CanViewStudents:  true,
}

// User is an account that can sign in to the registrar.
type User struct {
	ID           uint                            `gorm:"primaryKey" json:"id"`
	Name         string                          `gorm:"size:255;not null" json:"name"`
	Email        string                          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string                          `gorm:"size:255;not null" json:"-"`
	Permissions  datatypes.JSONType[Permissions] `gorm:"type:json" json:"permissions"`
	CreatedAt    time.Time                       `json:"createdAt"`
	UpdatedAt    time.Time                       `json:"updatedAt"`
}

// TokenRole is the role stamped into bearer tokens.
func (u User) TokenRole() string {
	if u.Permissions.Data().CanCreateAccounts {
		return RoleRegistrar
	}
	return RoleFaculty
}

// DisplayRole is the coarse role shown in the UI.
func (u User) DisplayRole() string {
	if u.Permissions.Data().CanCreateAccounts {
		return "Admin"
	}
	return "User"
}
