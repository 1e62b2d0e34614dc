package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/linebaby/linebaby/internal/db/dbgen"
	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/typeid"
)

var (
	ErrNotFound     = errors.New("project not found")
	ErrForbidden    = errors.New("forbidden")
	ErrNotMember    = errors.New("not a project member")
	ErrUserNotFound = errors.New("user not found")
	ErrOwnerRemoval = errors.New("cannot remove project owner")
	ErrInvalidFile  = errors.New("invalid project file")
)

// Store is the part of the query layer the project service uses.
// *dbgen.Queries satisfies it.
type Store interface {
	CreateProject(ctx context.Context, arg dbgen.CreateProjectParams) (dbgen.Project, error)
	GetProject(ctx context.Context, id string) (dbgen.Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]dbgen.Project, error)
	UpdateProjectTimeline(ctx context.Context, arg dbgen.UpdateProjectTimelineParams) error
	DeleteProject(ctx context.Context, id string) error
	AddProjectMember(ctx context.Context, arg dbgen.AddProjectMemberParams) error
	GetProjectMember(ctx context.Context, arg dbgen.GetProjectMemberParams) (dbgen.ProjectMember, error)
	ListProjectMembers(ctx context.Context, projectID string) ([]dbgen.ListProjectMembersRow, error)
	RemoveProjectMember(ctx context.Context, arg dbgen.RemoveProjectMemberParams) error
	GetUserByEmail(ctx context.Context, email string) (dbgen.User, error)
	CreateNextSnapshot(ctx context.Context, arg dbgen.CreateNextSnapshotParams) (dbgen.Snapshot, error)
	GetLatestSnapshot(ctx context.Context, projectID string) (dbgen.Snapshot, error)
}

type Service struct {
	store           Store
	defaultDuration float32
}

func NewService(store Store, defaultDuration float32) *Service {
	if defaultDuration <= 0 {
		defaultDuration = document.DefaultTimelineDuration
	}
	return &Service{store: store, defaultDuration: defaultDuration}
}

type Project struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	OwnerID          string  `json:"ownerId"`
	TimelineDuration float32 `json:"timelineDuration"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Snapshot describes a stored project file.
type Snapshot struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Size    int    `json:"size"`
	Strokes int    `json:"strokes"`
}

// Create makes a project owned by ownerID, seeded with an empty scene.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Project, error) {
	projectID := typeid.NewProjectID()

	dbProj, err := s.store.CreateProject(ctx, dbgen.CreateProjectParams{
		ID:               projectID,
		Name:             name,
		OwnerID:          ownerID,
		TimelineDuration: s.defaultDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	err = s.store.AddProjectMember(ctx, dbgen.AddProjectMemberParams{
		ProjectID: projectID,
		UserID:    ownerID,
		Role:      dbgen.ProjectRoleOwner,
	})
	if err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}

	scene := document.NewScene()
	scene.TimelineDuration = s.defaultDuration
	scene.ExportRange = [2]float32{0, s.defaultDuration}
	if _, err := s.SaveScene(ctx, projectID, scene); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbProjectToProject(dbProj), nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	if _, err := s.membership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	dbProj, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return dbProjectToProject(dbProj), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	dbProjects, err := s.store.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]Project, len(dbProjects))
	for i, p := range dbProjects {
		projects[i] = *dbProjectToProject(p)
	}

	return projects, nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if err := s.requireOwner(ctx, projectID, userID); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, projectID)
}

func (s *Service) InviteByEmail(ctx context.Context, projectID, ownerID, inviteeEmail string) error {
	if err := s.requireOwner(ctx, projectID, ownerID); err != nil {
		return err
	}

	invitee, err := s.store.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	return s.store.AddProjectMember(ctx, dbgen.AddProjectMemberParams{
		ProjectID: projectID,
		UserID:    invitee.ID,
		Role:      dbgen.ProjectRoleEditor,
	})
}

func (s *Service) ListMembers(ctx context.Context, projectID, userID string) ([]Member, error) {
	if _, err := s.membership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	dbMembers, err := s.store.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]Member, len(dbMembers))
	for i, m := range dbMembers {
		members[i] = Member{
			UserID:      m.UserID,
			Role:        string(m.Role),
			DisplayName: m.DisplayName,
			Email:       m.Email,
		}
	}

	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, projectID, ownerID, targetUserID string) error {
	if err := s.requireOwner(ctx, projectID, ownerID); err != nil {
		return err
	}
	if targetUserID == ownerID {
		return ErrOwnerRemoval
	}

	return s.store.RemoveProjectMember(ctx, dbgen.RemoveProjectMemberParams{
		ProjectID: projectID,
		UserID:    targetUserID,
	})
}

// CanEdit reports whether userID may change the project's file.
func (s *Service) CanEdit(ctx context.Context, projectID, userID string) error {
	m, err := s.membership(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if m.Role == dbgen.ProjectRoleViewer {
		return ErrForbidden
	}
	return nil
}

// CanView reports whether userID may read the project.
func (s *Service) CanView(ctx context.Context, projectID, userID string) error {
	_, err := s.membership(ctx, projectID, userID)
	return err
}

// SaveFile validates data as a LINE project file and stores it as the next
// snapshot.
func (s *Service) SaveFile(ctx context.Context, projectID, userID string, data []byte) (*Snapshot, error) {
	if err := s.CanEdit(ctx, projectID, userID); err != nil {
		return nil, err
	}
	scene, err := document.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return s.saveSnapshot(ctx, projectID, data, scene)
}

// LoadFile returns the latest LINE bytes of the project.
func (s *Service) LoadFile(ctx context.Context, projectID, userID string) ([]byte, error) {
	if err := s.CanView(ctx, projectID, userID); err != nil {
		return nil, err
	}
	snap, err := s.latest(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return snap.Document, nil
}

// LoadScene decodes the latest snapshot without an access check. Callers have
// already authorized the request.
func (s *Service) LoadScene(ctx context.Context, projectID string) (*document.Scene, error) {
	snap, err := s.latest(ctx, projectID)
	if err != nil {
		return nil, err
	}
	scene, err := document.Unmarshal(snap.Document)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return scene, nil
}

// SaveScene encodes scene and stores it as the next snapshot without an access
// check.
func (s *Service) SaveScene(ctx context.Context, projectID string, scene *document.Scene) (*Snapshot, error) {
	data, err := document.Marshal(scene)
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return s.saveSnapshot(ctx, projectID, data, scene)
}

func (s *Service) saveSnapshot(ctx context.Context, projectID string, data []byte, scene *document.Scene) (*Snapshot, error) {
	snap, err := s.store.CreateNextSnapshot(ctx, dbgen.CreateNextSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		ProjectID: projectID,
		Document:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	// Zero sizes keep the stored ones.
	update := dbgen.UpdateProjectTimelineParams{ID: projectID, TimelineDuration: scene.TimelineDuration}
	if scene.ArtboardSet {
		r := scene.ArtboardRect()
		update.Width = int32(math.Round(float64(r.Width())))
		update.Height = int32(math.Round(float64(r.Height())))
	}
	err = s.store.UpdateProjectTimeline(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	slog.Debug("snapshot saved", "project", projectID, "version", snap.Version, "bytes", len(data))
	return &Snapshot{ID: snap.ID, Version: int(snap.Version), Size: len(data), Strokes: scene.Len()}, nil
}

func (s *Service) latest(ctx context.Context, projectID string) (dbgen.Snapshot, error) {
	snap, err := s.store.GetLatestSnapshot(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Snapshot{}, ErrNotFound
		}
		return dbgen.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

func (s *Service) requireOwner(ctx context.Context, projectID, userID string) error {
	dbProj, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get project: %w", err)
	}
	if dbProj.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) membership(ctx context.Context, projectID, userID string) (dbgen.ProjectMember, error) {
	m, err := s.store.GetProjectMember(ctx, dbgen.GetProjectMemberParams{
		ProjectID: projectID,
		UserID:    userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.ProjectMember{}, ErrNotMember
		}
		return dbgen.ProjectMember{}, fmt.Errorf("check membership: %w", err)
	}
	return m, nil
}

func dbProjectToProject(p dbgen.Project) *Project {
	return &Project{
		ID:               p.ID,
		Name:             p.Name,
		OwnerID:          p.OwnerID,
		TimelineDuration: p.TimelineDuration,
		Width:            int(p.Width),
		Height:           int(p.Height),
		CreatedAt:        p.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:        p.UpdatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
}
