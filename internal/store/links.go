package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docportal/repocli/internal/sqlutil"
)

// Link is a directed reference between two objects.
type Link struct {
	Source string
	Target string
}

// AddLink records a reference from source to target. Both objects must exist.
func (s *Store) AddLink(ctx context.Context, source, target string) error {
	for _, id := range []string{source, target} {
		ok, err := s.ObjectExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("link %s -> %s: %w: %s", source, target, ErrObjectNotFound, id)
		}
	}
	_, err := s.q(ctx).ExecContext(ctx,
		"INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)", source, target)
	if err != nil {
		return fmt.Errorf("link %s -> %s: %w", source, target, err)
	}
	return nil
}

// RemoveLink deletes the reference from source to target. It reports whether
// a link was removed.
func (s *Store) RemoveLink(ctx context.Context, source, target string) (bool, error) {
	res, err := s.q(ctx).ExecContext(ctx, "DELETE FROM links WHERE source = ? AND target = ?", source, target)
	if err != nil {
		return false, fmt.Errorf("unlink %s -> %s: %w", source, target, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// OutgoingLinks lists the targets id links to.
func (s *Store) OutgoingLinks(ctx context.Context, id string) ([]string, error) {
	out, err := queryStrings(ctx, s.q(ctx), "SELECT target FROM links WHERE source = ? ORDER BY target", id)
	if err != nil {
		return nil, fmt.Errorf("list links of %s: %w", id, err)
	}
	return out, nil
}

// IncomingLinks lists the sources that link to id.
func (s *Store) IncomingLinks(ctx context.Context, id string) ([]string, error) {
	out, err := queryStrings(ctx, s.q(ctx), "SELECT source FROM links WHERE target = ? ORDER BY source", id)
	if err != nil {
		return nil, fmt.Errorf("list links to %s: %w", id, err)
	}
	return out, nil
}

// DanglingLinks lists links whose source or target no longer exists.
func (s *Store) DanglingLinks(ctx context.Context) ([]Link, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT l.source, l.target FROM links l
		LEFT JOIN objects s ON s.id = l.source
		LEFT JOIN objects t ON t.id = l.target
		WHERE s.id IS NULL OR t.id IS NULL
		ORDER BY l.source, l.target`)
	if err != nil {
		return nil, fmt.Errorf("check link integrity: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (Link, error) {
		var l Link
		err := rows.Scan(&l.Source, &l.Target)
		return l, err
	})
}

// MissingObjects returns the IDs of ids that are not stored, in input order.
func (s *Store) MissingObjects(ctx context.Context, ids []string) ([]string, error) {
	ph, args := sqlutil.InClauseArgs(ids)
	found, err := queryStrings(ctx, s.q(ctx), "SELECT id FROM objects WHERE id IN ("+ph+")", args...)
	if err != nil {
		return nil, fmt.Errorf("look up objects: %w", err)
	}
	present := make(map[string]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []string
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
