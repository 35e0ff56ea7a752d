package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Object is one metadata object of the repository.
type Object struct {
	ID       string            `yaml:"id" json:"id"`
	Label    string            `yaml:"label,omitempty" json:"label,omitempty"`
	Fields   map[string]string `yaml:"fields,omitempty" json:"fields,omitempty"`
	Links    []string          `yaml:"links,omitempty" json:"links,omitempty"`
	Created  time.Time         `yaml:"created,omitempty" json:"created,omitempty"`
	Modified time.Time         `yaml:"modified,omitempty" json:"modified,omitempty"`
}

// ObjectID is a parsed identifier of the form <project>_<type>_<number>.
type ObjectID struct {
	Project string
	Type    string
	Number  int
}

// IDDigits is the zero-padded width of the number part.
const IDDigits = 8

// ParseObjectID splits id into its project, type and number parts.
func ParseObjectID(id string) (ObjectID, error) {
	last := strings.LastIndexByte(id, '_')
	if last <= 0 {
		return ObjectID{}, fmt.Errorf("invalid object id %q: expected <project>_<type>_<number>", id)
	}
	first := strings.IndexByte(id, '_')
	if first == last {
		return ObjectID{}, fmt.Errorf("invalid object id %q: expected <project>_<type>_<number>", id)
	}
	n, err := strconv.Atoi(id[last+1:])
	if err != nil || n < 0 {
		return ObjectID{}, fmt.Errorf("invalid object id %q: number part is not a non-negative integer", id)
	}
	oid := ObjectID{Project: id[:first], Type: id[first+1 : last], Number: n}
	if oid.Project == "" || oid.Type == "" {
		return ObjectID{}, fmt.Errorf("invalid object id %q: expected <project>_<type>_<number>", id)
	}
	return oid, nil
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%s_%s_%0*d", id.Project, id.Type, IDDigits, id.Number)
}

// Base returns the <project>_<type> part.
func (id ObjectID) Base() string {
	return id.Project + "_" + id.Type
}

// CreateObject stores a new object and its outgoing links. Link targets must
// already exist.
func (s *Store) CreateObject(ctx context.Context, obj *Object) error {
	oid, err := ParseObjectID(obj.ID)
	if err != nil {
		return err
	}
	q := s.q(ctx)

	exists, err := s.ObjectExists(ctx, obj.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrObjectExists, obj.ID)
	}

	fields, err := encodeFields(obj.Fields)
	if err != nil {
		return err
	}
	now := time.Now()
	created := obj.Created
	if created.IsZero() {
		created = now
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO objects (id, project, type, number, label, fields, created_at, modified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		obj.ID, oid.Project, oid.Type, oid.Number, obj.Label, fields, created.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("insert object %s: %w", obj.ID, err)
	}
	return s.replaceLinks(ctx, obj.ID, obj.Links)
}

// UpdateObject replaces the label, fields and links of an existing object.
func (s *Store) UpdateObject(ctx context.Context, obj *Object) error {
	fields, err := encodeFields(obj.Fields)
	if err != nil {
		return err
	}
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE objects SET label = ?, fields = ?, modified_at = ? WHERE id = ?`,
		obj.Label, fields, time.Now().Unix(), obj.ID)
	if err != nil {
		return fmt.Errorf("update object %s: %w", obj.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, obj.ID)
	}
	return s.replaceLinks(ctx, obj.ID, obj.Links)
}

func (s *Store) replaceLinks(ctx context.Context, source string, targets []string) error {
	q := s.q(ctx)
	missing, err := s.MissingObjects(ctx, targets)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("links of %s: %w: %s", source, ErrObjectNotFound, strings.Join(missing, ", "))
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM links WHERE source = ?", source); err != nil {
		return fmt.Errorf("clear links of %s: %w", source, err)
	}
	for _, target := range targets {
		if _, err := q.ExecContext(ctx,
			"INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)", source, target); err != nil {
			return fmt.Errorf("link %s -> %s: %w", source, target, err)
		}
	}
	return nil
}

// ObjectExists reports whether id is stored.
func (s *Store) ObjectExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM objects WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("look up object %s: %w", id, err)
	}
	return n > 0, nil
}

// GetObject loads an object with its outgoing links.
func (s *Store) GetObject(ctx context.Context, id string) (*Object, error) {
	q := s.q(ctx)
	var (
		obj              Object
		fields           string
		created, updated int64
	)
	err := q.QueryRowContext(ctx,
		"SELECT id, label, fields, created_at, modified_at FROM objects WHERE id = ?", id).
		Scan(&obj.ID, &obj.Label, &fields, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load object %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(fields), &obj.Fields); err != nil {
		return nil, fmt.Errorf("decode fields of %s: %w", id, err)
	}
	obj.Created = time.Unix(created, 0).UTC()
	obj.Modified = time.Unix(updated, 0).UTC()

	obj.Links, err = queryStrings(ctx, q, "SELECT target FROM links WHERE source = ? ORDER BY target", id)
	if err != nil {
		return nil, fmt.Errorf("load links of %s: %w", id, err)
	}
	return &obj, nil
}

// DeleteObject removes an object, its outgoing links and its access rules.
// It fails with *BlockingReferencesError when other objects link to it.
func (s *Store) DeleteObject(ctx context.Context, id string) error {
	exists, err := s.ObjectExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}

	incoming, err := s.IncomingLinks(ctx, id)
	if err != nil {
		return err
	}
	blocking := make(map[string][]string)
	for _, src := range incoming {
		if src != id {
			blocking[src] = append(blocking[src], id)
		}
	}
	if len(blocking) > 0 {
		return &BlockingReferencesError{Op: "delete " + id, Blocking: blocking}
	}

	q := s.q(ctx)
	if _, err := q.ExecContext(ctx, "DELETE FROM links WHERE source = ? OR target = ?", id, id); err != nil {
		return fmt.Errorf("delete links of %s: %w", id, err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM access_rules WHERE object_id = ?", id); err != nil {
		return fmt.Errorf("delete access rules of %s: %w", id, err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM objects WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}

// ObjectIDsOfType lists stored IDs of the given type in number order.
func (s *Store) ObjectIDsOfType(ctx context.Context, typ string) ([]string, error) {
	ids, err := queryStrings(ctx, s.q(ctx), "SELECT id FROM objects WHERE type = ? ORDER BY project, number", typ)
	if err != nil {
		return nil, fmt.Errorf("list objects of type %s: %w", typ, err)
	}
	return ids, nil
}

// ObjectIDsInRange lists stored IDs sharing the project and type of from and
// to whose number lies in [from, to].
func (s *Store) ObjectIDsInRange(ctx context.Context, from, to string) ([]string, error) {
	lo, err := ParseObjectID(from)
	if err != nil {
		return nil, err
	}
	hi, err := ParseObjectID(to)
	if err != nil {
		return nil, err
	}
	if lo.Base() != hi.Base() {
		return nil, fmt.Errorf("range bounds %s and %s differ in project or type", from, to)
	}
	if lo.Number > hi.Number {
		return nil, fmt.Errorf("range start %s is after range end %s", from, to)
	}
	ids, err := queryStrings(ctx, s.q(ctx),
		"SELECT id FROM objects WHERE project = ? AND type = ? AND number BETWEEN ? AND ? ORDER BY number",
		lo.Project, lo.Type, lo.Number, hi.Number)
	if err != nil {
		return nil, fmt.Errorf("list objects from %s to %s: %w", from, to, err)
	}
	return ids, nil
}

// CountObjects counts stored objects of the given type.
func (s *Store) CountObjects(ctx context.Context, typ string) (int, error) {
	var n int
	if err := s.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM objects WHERE type = ?", typ).Scan(&n); err != nil {
		return 0, fmt.Errorf("count objects of type %s: %w", typ, err)
	}
	return n, nil
}

// NextObjectID returns the first unused ID after the highest stored number
// for project and type.
func (s *Store) NextObjectID(ctx context.Context, project, typ string) (string, error) {
	var max sql.NullInt64
	err := s.q(ctx).QueryRowContext(ctx,
		"SELECT MAX(number) FROM objects WHERE project = ? AND type = ?", project, typ).Scan(&max)
	if err != nil {
		return "", fmt.Errorf("find next id for %s_%s: %w", project, typ, err)
	}
	next := 1
	if max.Valid {
		next = int(max.Int64) + 1
	}
	return ObjectID{Project: project, Type: typ, Number: next}.String(), nil
}

func encodeFields(fields map[string]string) (string, error) {
	if fields == nil {
		return "{}", nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	return string(data), nil
}
