package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const leadColumns = `id, first_name, last_name, email, phone, company, city, state,
	status, source, score, lead_value, is_qualified, last_activity_at, created_at, updated_at`

func (s *Store) CreateLead(l Lead) error {
	_, err := s.db.Exec(`
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.FirstName, l.LastName, l.Email, l.Phone, l.Company, l.City, l.State,
		l.Status, l.Source, l.Score, l.LeadValue, boolInt(l.IsQualified),
		nullableTime(l.LastActivityAt),
		l.CreatedAt.UTC().Format(time.RFC3339), l.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) UpdateLead(l Lead) error {
	res, err := s.db.Exec(`
		UPDATE leads SET first_name = ?, last_name = ?, email = ?, phone = ?,
			company = ?, city = ?, state = ?, status = ?, source = ?, score = ?,
			lead_value = ?, is_qualified = ?, last_activity_at = ?, updated_at = ?
		WHERE id = ?`,
		l.FirstName, l.LastName, l.Email, l.Phone, l.Company, l.City, l.State,
		l.Status, l.Source, l.Score, l.LeadValue, boolInt(l.IsQualified),
		nullableTime(l.LastActivityAt), l.UpdatedAt.UTC().Format(time.RFC3339),
		l.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteLead(id string) error {
	res, err := s.db.Exec(`DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetLead(id string) (Lead, error) {
	rows, err := s.db.Query(`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	if err != nil {
		return Lead{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Lead{}, err
		}
		return Lead{}, ErrNotFound
	}
	return scanLead(rows)
}

// ListLeads applies the list grammar and returns one page of leads in
// newest-first order plus the total row count for the filter set.
func (s *Store) ListLeads(q LeadQuery) ([]Lead, int, error) {
	where, args := buildLeadWhere(q)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting leads: %w", err)
	}

	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	offset := (q.Page - 1) * q.Limit

	listArgs := append(append([]any{}, args...), q.Limit, offset)
	rows, err := s.db.Query(`
		SELECT `+leadColumns+` FROM leads`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, l)
	}
	return leads, total, rows.Err()
}

func buildLeadWhere(q LeadQuery) (string, []any) {
	var clauses []string
	var args []any

	if q.Search != "" {
		like := "%" + q.Search + "%"
		clauses = append(clauses, `(first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR company LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	if q.Status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, q.Status)
	}
	if q.Source != "" {
		clauses = append(clauses, `source = ?`)
		args = append(args, q.Source)
	}
	if q.ScoreGT != nil {
		clauses = append(clauses, `score > ?`)
		args = append(args, *q.ScoreGT)
	}
	if q.ScoreLT != nil {
		clauses = append(clauses, `score < ?`)
		args = append(args, *q.ScoreLT)
	}
	if q.ValueGT != nil {
		clauses = append(clauses, `lead_value > ?`)
		args = append(args, *q.ValueGT)
	}
	if q.ValueLT != nil {
		clauses = append(clauses, `lead_value < ?`)
		args = append(args, *q.ValueLT)
	}
	if q.CreatedAfter != nil {
		clauses = append(clauses, `created_at >= ?`)
		args = append(args, q.CreatedAfter.UTC().Format(time.RFC3339))
	}
	if q.CreatedBefore != nil {
		clauses = append(clauses, `created_at <= ?`)
		args = append(args, q.CreatedBefore.UTC().Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanLead(rows *sql.Rows) (Lead, error) {
	var l Lead
	var isQualified int
	var lastActivity sql.NullString
	var createdAt, updatedAt string

	err := rows.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Company,
		&l.City, &l.State, &l.Status, &l.Source, &l.Score, &l.LeadValue,
		&isQualified, &lastActivity, &createdAt, &updatedAt)
	if err != nil {
		return Lead{}, err
	}

	l.IsQualified = isQualified != 0
	if lastActivity.Valid && lastActivity.String != "" {
		t, err := time.Parse(time.RFC3339, lastActivity.String)
		if err != nil {
			return Lead{}, fmt.Errorf("parsing last_activity_at: %w", err)
		}
		l.LastActivityAt = &t
	}
	if l.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Lead{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if l.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Lead{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return l, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
