package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/docportal/repocli/internal/sqlutil"
)

// AccessRule grants one permission on an object to one principal.
type AccessRule struct {
	ObjectID   string
	Permission string
	Principal  string
	Created    time.Time
}

// Grant adds an access rule. Granting an existing rule is a no-op.
func (s *Store) Grant(ctx context.Context, rule AccessRule) error {
	ok, err := s.ObjectExists(ctx, rule.ObjectID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, rule.ObjectID)
	}
	_, err = s.q(ctx).ExecContext(ctx,
		`INSERT OR IGNORE INTO access_rules (object_id, permission, principal, created_at) VALUES (?, ?, ?, ?)`,
		rule.ObjectID, rule.Permission, rule.Principal, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("grant %s on %s to %s: %w", rule.Permission, rule.ObjectID, rule.Principal, err)
	}
	return nil
}

// Revoke removes an access rule and reports whether one existed.
func (s *Store) Revoke(ctx context.Context, rule AccessRule) (bool, error) {
	res, err := s.q(ctx).ExecContext(ctx,
		"DELETE FROM access_rules WHERE object_id = ? AND permission = ? AND principal = ?",
		rule.ObjectID, rule.Permission, rule.Principal)
	if err != nil {
		return false, fmt.Errorf("revoke %s on %s from %s: %w", rule.Permission, rule.ObjectID, rule.Principal, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// AccessRules lists the rules of an object ordered by permission and principal.
func (s *Store) AccessRules(ctx context.Context, objectID string) ([]AccessRule, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		"SELECT object_id, permission, principal, created_at FROM access_rules WHERE object_id = ? ORDER BY permission, principal",
		objectID)
	if err != nil {
		return nil, fmt.Errorf("list access rules of %s: %w", objectID, err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (AccessRule, error) {
		var r AccessRule
		var created int64
		err := rows.Scan(&r.ObjectID, &r.Permission, &r.Principal, &created)
		r.Created = time.Unix(created, 0).UTC()
		return r, err
	})
}

// DeleteAccessRules removes every rule of an object and returns how many.
func (s *Store) DeleteAccessRules(ctx context.Context, objectID string) (int, error) {
	res, err := s.q(ctx).ExecContext(ctx, "DELETE FROM access_rules WHERE object_id = ?", objectID)
	if err != nil {
		return 0, fmt.Errorf("delete access rules of %s: %w", objectID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Classification is a named tree root; categories hang off it in insertion order.
type Classification struct {
	ID         string
	Label      string
	Categories []Category
}

// Category is one entry of a classification.
type Category struct {
	ID    string
	Label string
}

// CreateClassification stores an empty classification.
func (s *Store) CreateClassification(ctx context.Context, id, label string) error {
	_, err := s.q(ctx).ExecContext(ctx, "INSERT INTO classifications (id, label) VALUES (?, ?)", id, label)
	if err != nil {
		return fmt.Errorf("create classification %s: %w", id, err)
	}
	return nil
}

// AddCategory appends a category to a classification.
func (s *Store) AddCategory(ctx context.Context, classID string, cat Category) error {
	q := s.q(ctx)
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM classifications WHERE id = ?", classID).Scan(&n); err != nil {
		return fmt.Errorf("look up classification %s: %w", classID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrClassificationNotFound, classID)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO categories (classification_id, id, label, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM categories WHERE classification_id = ?))`,
		classID, cat.ID, cat.Label, classID)
	if err != nil {
		return fmt.Errorf("add category %s to %s: %w", cat.ID, classID, err)
	}
	return nil
}

// GetClassification loads a classification with its categories.
func (s *Store) GetClassification(ctx context.Context, id string) (*Classification, error) {
	q := s.q(ctx)
	c := &Classification{ID: id}
	err := q.QueryRowContext(ctx, "SELECT label FROM classifications WHERE id = ?", id).Scan(&c.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrClassificationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load classification %s: %w", id, err)
	}

	rows, err := q.QueryContext(ctx,
		"SELECT id, label FROM categories WHERE classification_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("load categories of %s: %w", id, err)
	}
	c.Categories, err = sqlutil.ScanRows(rows, func(rows *sql.Rows) (Category, error) {
		var cat Category
		err := rows.Scan(&cat.ID, &cat.Label)
		return cat, err
	})
	if err != nil {
		return nil, fmt.Errorf("load categories of %s: %w", id, err)
	}
	return c, nil
}

// DeleteClassification removes a classification and its categories.
func (s *Store) DeleteClassification(ctx context.Context, id string) error {
	q := s.q(ctx)
	res, err := q.ExecContext(ctx, "DELETE FROM classifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete classification %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrClassificationNotFound, id)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM categories WHERE classification_id = ?", id); err != nil {
		return fmt.Errorf("delete categories of %s: %w", id, err)
	}
	return nil
}
