package group

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=group
type Repository interface {
	// CreateGroup persists the group and its creator's membership atomically.
	CreateGroup(ctx context.Context, g *Group) error
	GetGroup(ctx context.Context, id uuid.UUID) (*Group, error)
	GroupsForUser(ctx context.Context, username string) ([]*Group, error)
	// AddMember fails with ErrAlreadyMember if the membership already exists.
	AddMember(ctx context.Context, groupID uuid.UUID, username string) error
	UserExists(ctx context.Context, username string) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create makes a new group owned by creator, who becomes its first member.
func (s *Service) Create(ctx context.Context, name, creator string) (*Group, error) {
	if name == "" {
		return nil, fmt.Errorf("group name required")
	}

	exists, err := s.repo.UserExists(ctx, creator)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, ErrUserNotFound
	}

	g := &Group{
		Name:      name,
		CreatedBy: creator,
		Members:   []string{creator},
	}

	if err := s.repo.CreateGroup(ctx, g); err != nil {
		return nil, err
	}

	return g, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Group, error) {
	return s.repo.GetGroup(ctx, id)
}

// ListForUser returns every group the user is a member of, with members.
func (s *Service) ListForUser(ctx context.Context, username string) ([]*Group, error) {
	return s.repo.GroupsForUser(ctx, username)
}

// AddMember adds an existing user to an existing group. Membership cannot be
// removed, only added.
func (s *Service) AddMember(ctx context.Context, groupID uuid.UUID, username string) error {
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return err
	}

	exists, err := s.repo.UserExists(ctx, username)
	if err != nil {
		return err
	}

	if !exists {
		return ErrUserNotFound
	}

	return s.repo.AddMember(ctx, groupID, username)
}
