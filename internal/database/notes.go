package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dicom-viewer/internal/metrics"
)

// MaxBatchStudies is the largest number of studies GetNotes accepts.
const MaxBatchStudies = 200

// MaxClientClockDrift bounds how far a client-supplied comment time may be
// from the server clock before it is replaced by server time.
const MaxClientClockDrift = 365 * 24 * time.Hour

var (
	// ErrNotFound is returned when a comment does not exist or belongs to
	// another study.
	ErrNotFound = errors.New("not found")
	// ErrEmptyText is returned for comments whose text is empty after trimming.
	ErrEmptyText = errors.New("comment text is required")
	// ErrTooManyStudies is returned when a batch exceeds MaxBatchStudies.
	ErrTooManyStudies = fmt.Errorf("too many studies requested (maximum %d)", MaxBatchStudies)
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// commentTime returns client when it is within MaxClientClockDrift of now.
func commentTime(client *int64, now int64) int64 {
	if client == nil {
		return now
	}
	drift := time.Duration(now-*client) * time.Millisecond
	if drift < 0 {
		drift = -drift
	}
	if drift > MaxClientClockDrift {
		return now
	}
	return *client
}

// GetNotes returns the notes of each requested study that has any.
// Studies without notes are omitted from the result.
func (d *Database) GetNotes(ctx context.Context, studyUIDs []string) (map[string]*StudyNotes, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_notes", start, err) }()

	if len(studyUIDs) > MaxBatchStudies {
		err = ErrTooManyStudies
		return nil, err
	}

	result := make(map[string]*StudyNotes)
	if len(studyUIDs) == 0 {
		return result, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(studyUIDs)), ",")
	args := make([]any, len(studyUIDs))
	for i, uid := range studyUIDs {
		args[i] = uid
	}

	notes := func(uid string) *StudyNotes {
		n, ok := result[uid]
		if !ok {
			n = newStudyNotes()
			result[uid] = n
		}
		return n
	}

	if err = d.queryRows(ctx, "SELECT study_uid, description FROM study_notes WHERE study_uid IN ("+placeholders+")", args,
		func(rows *sql.Rows) error {
			var uid, desc string
			if err := rows.Scan(&uid, &desc); err != nil {
				return err
			}
			notes(uid).Description = desc
			return nil
		}); err != nil {
		return nil, fmt.Errorf("failed to get study descriptions: %w", err)
	}

	if err = d.queryRows(ctx, "SELECT study_uid, series_uid, description FROM series_notes WHERE study_uid IN ("+placeholders+")", args,
		func(rows *sql.Rows) error {
			var uid, seriesUID, desc string
			if err := rows.Scan(&uid, &seriesUID, &desc); err != nil {
				return err
			}
			notes(uid).series(seriesUID).Description = desc
			return nil
		}); err != nil {
		return nil, fmt.Errorf("failed to get series descriptions: %w", err)
	}

	if err = d.queryRows(ctx, "SELECT id, study_uid, series_uid, text, time FROM comments WHERE study_uid IN ("+placeholders+") ORDER BY time ASC, id ASC", args,
		func(rows *sql.Rows) error {
			var c Comment
			var seriesUID sql.NullString
			if err := rows.Scan(&c.ID, &c.StudyUID, &seriesUID, &c.Text, &c.Time); err != nil {
				return err
			}
			n := notes(c.StudyUID)
			if seriesUID.Valid {
				c.SeriesUID = &seriesUID.String
				s := n.series(seriesUID.String)
				s.Comments = append(s.Comments, c)
			} else {
				n.Comments = append(n.Comments, c)
			}
			return nil
		}); err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	return result, nil
}

func (d *Database) queryRows(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SetStudyDescription stores the trimmed description of a study. An empty
// description deletes it.
func (d *Database) SetStudyDescription(ctx context.Context, studyUID, description string) (StudyDescription, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_study_description", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result := StudyDescription{
		StudyUID:    studyUID,
		Description: strings.TrimSpace(description),
		UpdatedAt:   nowMillis(),
	}

	if result.Description == "" {
		_, err = d.db.ExecContext(ctx, "DELETE FROM study_notes WHERE study_uid = ?", studyUID)
	} else {
		_, err = d.db.ExecContext(ctx, `
			INSERT INTO study_notes (study_uid, description, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(study_uid) DO UPDATE SET
				description = excluded.description,
				updated_at = excluded.updated_at
		`, studyUID, result.Description, result.UpdatedAt)
	}
	if err != nil {
		return StudyDescription{}, fmt.Errorf("failed to save study description: %w", err)
	}
	return result, nil
}

// SetSeriesDescription stores the trimmed description of a series within a
// study. An empty description deletes it.
func (d *Database) SetSeriesDescription(ctx context.Context, studyUID, seriesUID, description string) (SeriesDescription, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_series_description", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result := SeriesDescription{
		StudyUID:    studyUID,
		SeriesUID:   seriesUID,
		Description: strings.TrimSpace(description),
		UpdatedAt:   nowMillis(),
	}

	if result.Description == "" {
		_, err = d.db.ExecContext(ctx, "DELETE FROM series_notes WHERE study_uid = ? AND series_uid = ?", studyUID, seriesUID)
	} else {
		_, err = d.db.ExecContext(ctx, `
			INSERT INTO series_notes (study_uid, series_uid, description, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(study_uid, series_uid) DO UPDATE SET
				description = excluded.description,
				updated_at = excluded.updated_at
		`, studyUID, seriesUID, result.Description, result.UpdatedAt)
	}
	if err != nil {
		return SeriesDescription{}, fmt.Errorf("failed to save series description: %w", err)
	}
	return result, nil
}

// AddComment stores a comment on a study, or on one of its series when
// seriesUID is non-empty. clientTime is used when it is within
// MaxClientClockDrift of the server clock.
func (d *Database) AddComment(ctx context.Context, studyUID, seriesUID, text string, clientTime *int64) (Comment, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_comment", start, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		err = ErrEmptyText
		return Comment{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := Comment{
		StudyUID: studyUID,
		Text:     text,
		Time:     commentTime(clientTime, nowMillis()),
	}

	var series sql.NullString
	if seriesUID != "" {
		series = sql.NullString{String: seriesUID, Valid: true}
		c.SeriesUID = &seriesUID
	}

	var res sql.Result
	res, err = d.db.ExecContext(ctx,
		"INSERT INTO comments (study_uid, series_uid, text, time) VALUES (?, ?, ?, ?)",
		studyUID, series, c.Text, c.Time)
	if err != nil {
		return Comment{}, fmt.Errorf("failed to add comment: %w", err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return Comment{}, fmt.Errorf("failed to read comment id: %w", err)
	}
	return c, nil
}

// UpdateComment replaces the text of a comment owned by studyUID and stamps
// it with the server time.
func (d *Database) UpdateComment(ctx context.Context, studyUID string, id int64, text string) (Comment, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_comment", start, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		err = ErrEmptyText
		return Comment{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c := Comment{ID: id, StudyUID: studyUID, Text: text, Time: nowMillis()}

	var res sql.Result
	res, err = d.db.ExecContext(ctx,
		"UPDATE comments SET text = ?, time = ? WHERE id = ? AND study_uid = ?",
		c.Text, c.Time, id, studyUID)
	if err != nil {
		return Comment{}, fmt.Errorf("failed to update comment: %w", err)
	}
	if err = requireRow(res); err != nil {
		return Comment{}, err
	}

	var series sql.NullString
	if err = d.db.QueryRowContext(ctx, "SELECT series_uid FROM comments WHERE id = ?", id).Scan(&series); err != nil {
		return Comment{}, fmt.Errorf("failed to read comment: %w", err)
	}
	if series.Valid {
		c.SeriesUID = &series.String
	}
	return c, nil
}

// DeleteComment removes a comment owned by studyUID.
func (d *Database) DeleteComment(ctx context.Context, studyUID string, id int64) (DeletedComment, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_comment", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res sql.Result
	res, err = d.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ? AND study_uid = ?", id, studyUID)
	if err != nil {
		return DeletedComment{}, fmt.Errorf("failed to delete comment: %w", err)
	}
	if err = requireRow(res); err != nil {
		return DeletedComment{}, err
	}
	return DeletedComment{Deleted: true, ID: id}, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountNotes returns the number of stored comments and descriptions.
func (d *Database) CountNotes(ctx context.Context) (comments, descriptions int, err error) {
	start := time.Now()
	defer func() { recordQuery("count_notes", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM study_notes) + (SELECT COUNT(*) FROM series_notes)
	`).Scan(&comments, &descriptions)
	return comments, descriptions, err
}

// GetStats implements metrics.StatsProvider.
func (d *Database) GetStats() metrics.Stats {
	comments, descriptions, err := d.CountNotes(context.Background())
	if err != nil {
		return metrics.Stats{}
	}
	return metrics.Stats{Comments: comments, Descriptions: descriptions}
}
