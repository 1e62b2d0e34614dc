package dbgen

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type ProjectRole string

const (
	ProjectRoleOwner  ProjectRole = "owner"
	ProjectRoleEditor ProjectRole = "editor"
	ProjectRoleViewer ProjectRole = "viewer"
)

type Project struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	OwnerID          string             `json:"owner_id"`
	TimelineDuration float32            `json:"timeline_duration"`
	Width            int32              `json:"width"`
	Height           int32              `json:"height"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

type ProjectMember struct {
	ProjectID string             `json:"project_id"`
	UserID    string             `json:"user_id"`
	Role      ProjectRole        `json:"role"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Snapshot struct {
	ID        string             `json:"id"`
	ProjectID string             `json:"project_id"`
	Version   int32              `json:"version"`
	Document  []byte             `json:"document"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type User struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	DisplayName string             `json:"display_name"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}
