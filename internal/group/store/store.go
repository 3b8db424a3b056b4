// Package store provides the PostgreSQL implementation of group.Repository.
// It also satisfies ledger.Directory, the engine's read-only view of groups.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/group"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/ledger"
)

const pgUniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateGroup(ctx context.Context, g *group.Group) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO groups (id, name, created_by) VALUES ($1, $2, $3) RETURNING created_at`,
		g.ID, g.Name, g.CreatedBy,
	).Scan(&g.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting group: %w", err)
	}

	for _, member := range g.Members {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, username) VALUES ($1, $2)`,
			g.ID, member,
		)
		if err != nil {
			return fmt.Errorf("inserting member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing group: %w", err)
	}

	return nil
}

func (s *Store) GetGroup(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	g := &group.Group{}

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, created_at FROM groups WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, group.ErrNotFound
		}

		return nil, fmt.Errorf("getting group: %w", err)
	}

	members, err := s.GroupMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	g.Members = members

	return g, nil
}

func (s *Store) GroupsForUser(ctx context.Context, username string) ([]*group.Group, error) {
	query := `
		SELECT g.id, g.name, g.created_by, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.username = $1
		ORDER BY g.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []*group.Group

	for rows.Next() {
		g := &group.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}

		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}

	for _, g := range groups {
		members, err := s.GroupMembers(ctx, g.ID)
		if err != nil {
			return nil, err
		}

		g.Members = members
	}

	return groups, nil
}

func (s *Store) AddMember(ctx context.Context, groupID uuid.UUID, username string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, username) VALUES ($1, $2)`,
		groupID, username,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return group.ErrAlreadyMember
		}

		return fmt.Errorf("inserting member: %w", err)
	}

	return nil
}

func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`,
		username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}

	return exists, nil
}

// GroupMembers returns usernames in the order they joined the group.
func (s *Store) GroupMembers(ctx context.Context, groupID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username FROM group_members WHERE group_id = $1 ORDER BY added_at, username`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}

		members = append(members, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}

	if len(members) == 0 {
		// Distinguish an unknown group from an impossible empty one: every
		// group has at least its creator as a member.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, groupID,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("checking group: %w", err)
		}

		if !exists {
			return nil, group.ErrNotFound
		}
	}

	return members, nil
}

func (s *Store) GroupName(ctx context.Context, groupID uuid.UUID) (string, error) {
	var name string

	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM groups WHERE id = $1`,
		groupID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", group.ErrNotFound
		}

		return "", fmt.Errorf("getting group name: %w", err)
	}

	return name, nil
}

// UserGroups returns references to every group the user belongs to.
func (s *Store) UserGroups(ctx context.Context, username string) ([]ledger.GroupRef, error) {
	query := `
		SELECT g.id, g.name
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.username = $1
		ORDER BY g.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("listing user groups: %w", err)
	}
	defer rows.Close()

	var refs []ledger.GroupRef

	for rows.Next() {
		var ref ledger.GroupRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scanning group ref: %w", err)
		}

		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user groups: %w", err)
	}

	return refs, nil
}
