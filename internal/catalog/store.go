package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrNotFound is returned when no catalog row matches the lookup.
var ErrNotFound = errors.New("catalog entry not found")

// ErrNameTaken is returned when a name collides within its table.
var ErrNameTaken = errors.New("name already in use")

// ErrBadReference is returned when a tank references a missing lookup row.
var ErrBadReference = errors.New("referenced catalog entry does not exist")

// ErrInvalidInput is returned for empty names, non-positive tiers, or bad
// paging parameters.
var ErrInvalidInput = errors.New("invalid catalog input")

// ErrStoreUnavailable wraps storage-engine failures.
var ErrStoreUnavailable = errors.New("catalog store unavailable")

// Table names for the three lookup entities, which share one CRUD
// implementation.
const (
	tableNations = "nations"
	tableClasses = "tank_classes"
	tableStatus  = "statuses"
)

// SQLStore persists the catalog over database/sql.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a catalog store backed by db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

/* ------------------------------------------------------------------ */
/* Lookups: nations, classes, statuses                                 */
/* ------------------------------------------------------------------ */

type lookupRow struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func (s *SQLStore) createLookup(ctx context.Context, table, name, description string) (*lookupRow, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	id, err := gonanoid.New(16)
	if err != nil {
		return nil, err
	}

	row := &lookupRow{ID: id, Name: strings.TrimSpace(name), Description: description, CreatedAt: time.Now().UTC()}
	if table == tableStatus {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO statuses (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
			row.ID, row.Name, row.Description, row.CreatedAt)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO `+table+` (id, name, created_at) VALUES (?, ?, ?)`,
			row.ID, row.Name, row.CreatedAt)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return row, nil
}

func (s *SQLStore) getLookup(ctx context.Context, table, id string) (*lookupRow, error) {
	query := `SELECT id, name, '', created_at, updated_at FROM ` + table + ` WHERE id = ?`
	if table == tableStatus {
		query = `SELECT id, name, description, created_at, updated_at FROM statuses WHERE id = ?`
	}

	var (
		row       lookupRow
		updatedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&row.ID, &row.Name, &row.Description, &row.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		row.UpdatedAt = &t
	}
	return &row, nil
}

func (s *SQLStore) listLookup(ctx context.Context, table string) ([]*lookupRow, error) {
	query := `SELECT id, name, '', created_at, updated_at FROM ` + table + ` ORDER BY name`
	if table == tableStatus {
		query = `SELECT id, name, description, created_at, updated_at FROM statuses ORDER BY name`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out := []*lookupRow{}
	for rows.Next() {
		var (
			row       lookupRow
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&row.ID, &row.Name, &row.Description, &row.CreatedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			row.UpdatedAt = &t
		}
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}

func (s *SQLStore) renameLookup(ctx context.Context, table, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET name = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(name), time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return requireAffected(res)
}

func (s *SQLStore) deleteLookup(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return requireAffected(res)
}

// CreateNation inserts a nation; the name must be unique.
func (s *SQLStore) CreateNation(ctx context.Context, name string) (*Nation, error) {
	row, err := s.createLookup(ctx, tableNations, name, "")
	if err != nil {
		return nil, err
	}
	return &Nation{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (s *SQLStore) GetNation(ctx context.Context, id string) (*Nation, error) {
	row, err := s.getLookup(ctx, tableNations, id)
	if err != nil {
		return nil, err
	}
	return &Nation{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}, nil
}

func (s *SQLStore) ListNations(ctx context.Context) ([]*Nation, error) {
	rows, err := s.listLookup(ctx, tableNations)
	if err != nil {
		return nil, err
	}
	out := make([]*Nation, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Nation{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt})
	}
	return out, nil
}

func (s *SQLStore) RenameNation(ctx context.Context, id, name string) error {
	return s.renameLookup(ctx, tableNations, id, name)
}

func (s *SQLStore) DeleteNation(ctx context.Context, id string) error {
	return s.deleteLookup(ctx, tableNations, id)
}

// CreateClass inserts a tank class; the name must be unique.
func (s *SQLStore) CreateClass(ctx context.Context, name string) (*TankClass, error) {
	row, err := s.createLookup(ctx, tableClasses, name, "")
	if err != nil {
		return nil, err
	}
	return &TankClass{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (s *SQLStore) GetClass(ctx context.Context, id string) (*TankClass, error) {
	row, err := s.getLookup(ctx, tableClasses, id)
	if err != nil {
		return nil, err
	}
	return &TankClass{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}, nil
}

func (s *SQLStore) ListClasses(ctx context.Context) ([]*TankClass, error) {
	rows, err := s.listLookup(ctx, tableClasses)
	if err != nil {
		return nil, err
	}
	out := make([]*TankClass, 0, len(rows))
	for _, row := range rows {
		out = append(out, &TankClass{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt})
	}
	return out, nil
}

func (s *SQLStore) RenameClass(ctx context.Context, id, name string) error {
	return s.renameLookup(ctx, tableClasses, id, name)
}

func (s *SQLStore) DeleteClass(ctx context.Context, id string) error {
	return s.deleteLookup(ctx, tableClasses, id)
}

// CreateStatus inserts a status; the name must be unique.
func (s *SQLStore) CreateStatus(ctx context.Context, name, description string) (*Status, error) {
	row, err := s.createLookup(ctx, tableStatus, name, description)
	if err != nil {
		return nil, err
	}
	return &Status{ID: row.ID, Name: row.Name, Description: row.Description, CreatedAt: row.CreatedAt}, nil
}

func (s *SQLStore) GetStatus(ctx context.Context, id string) (*Status, error) {
	row, err := s.getLookup(ctx, tableStatus, id)
	if err != nil {
		return nil, err
	}
	return &Status{ID: row.ID, Name: row.Name, Description: row.Description, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}, nil
}

func (s *SQLStore) ListStatuses(ctx context.Context) ([]*Status, error) {
	rows, err := s.listLookup(ctx, tableStatus)
	if err != nil {
		return nil, err
	}
	out := make([]*Status, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Status{ID: row.ID, Name: row.Name, Description: row.Description, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt})
	}
	return out, nil
}

// UpdateStatus replaces a status's name and description.
func (s *SQLStore) UpdateStatus(ctx context.Context, id, name, description string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE statuses SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(name), description, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return requireAffected(res)
}

func (s *SQLStore) DeleteStatus(ctx context.Context, id string) error {
	return s.deleteLookup(ctx, tableStatus, id)
}

/* ------------------------------------------------------------------ */
/* Tanks                                                               */
/* ------------------------------------------------------------------ */

const tankSelect = `
SELECT t.id, t.name, t.tier,
       t.nation_id, n.name,
       t.class_id, c.name,
       t.status_id, st.name,
       COALESCE(t.created_by, ''), COALESCE(t.updated_by, ''),
       t.created_at, t.updated_at
FROM tanks t
JOIN nations n ON n.id = t.nation_id
JOIN tank_classes c ON c.id = t.class_id
JOIN statuses st ON st.id = t.status_id`

// CreateTank inserts a tank after checking its lookup references.
func (s *SQLStore) CreateTank(ctx context.Context, input CreateTankInput) (*Tank, error) {
	if strings.TrimSpace(input.Name) == "" || input.Tier <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.checkReferences(ctx, input.NationID, input.ClassID, input.StatusID); err != nil {
		return nil, err
	}

	id, err := gonanoid.New(16)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tanks (id, name, tier, nation_id, class_id, status_id, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(input.Name), input.Tier,
		input.NationID, input.ClassID, input.StatusID, input.CreatedBy, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return s.GetTank(ctx, id)
}

// GetTank returns a tank with its lookup names resolved.
func (s *SQLStore) GetTank(ctx context.Context, id string) (*Tank, error) {
	return scanTank(s.db.QueryRowContext(ctx, tankSelect+` WHERE t.id = ?`, id))
}

// ListTanks returns one page of tanks ordered by name.
func (s *SQLStore) ListTanks(ctx context.Context, pageNumber, pageSize int) (*TankPage, error) {
	if pageNumber <= 0 || pageSize <= 0 {
		return nil, ErrInvalidInput
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tanks`).Scan(&total); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rows, err := s.db.QueryContext(ctx,
		tankSelect+` ORDER BY t.name LIMIT ? OFFSET ?`,
		pageSize, (pageNumber-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	items := []*Tank{}
	for rows.Next() {
		tank, err := scanTank(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, tank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &TankPage{Items: items, TotalCount: total, PageNumber: pageNumber, PageSize: pageSize}, nil
}

// UpdateTank replaces a tank's fields after checking references.
func (s *SQLStore) UpdateTank(ctx context.Context, id string, input UpdateTankInput) (*Tank, error) {
	if strings.TrimSpace(input.Name) == "" || input.Tier <= 0 {
		return nil, ErrInvalidInput
	}
	if err := s.checkReferences(ctx, input.NationID, input.ClassID, input.StatusID); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tanks SET name = ?, tier = ?, nation_id = ?, class_id = ?, status_id = ?,
		        updated_by = ?, updated_at = ?
		 WHERE id = ?`,
		strings.TrimSpace(input.Name), input.Tier,
		input.NationID, input.ClassID, input.StatusID,
		input.UpdatedBy, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	return s.GetTank(ctx, id)
}

// DeleteTank hard-removes a tank.
func (s *SQLStore) DeleteTank(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tanks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return requireAffected(res)
}

func (s *SQLStore) checkReferences(ctx context.Context, nationID, classID, statusID string) error {
	for _, ref := range []struct{ table, id string }{
		{tableNations, nationID},
		{tableClasses, classID},
		{tableStatus, statusID},
	} {
		if ref.id == "" {
			return ErrBadReference
		}
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM `+ref.table+` WHERE id = ?`, ref.id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBadReference
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTank(row rowScanner) (*Tank, error) {
	var (
		tank      Tank
		updatedAt sql.NullTime
	)
	err := row.Scan(
		&tank.ID, &tank.Name, &tank.Tier,
		&tank.NationID, &tank.NationName,
		&tank.ClassID, &tank.ClassName,
		&tank.StatusID, &tank.StatusName,
		&tank.CreatedBy, &tank.UpdatedBy,
		&tank.CreatedAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		tank.UpdatedAt = &t
	}
	return &tank, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
