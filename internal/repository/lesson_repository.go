package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/skillhub-booking/internal/model"
)

// lessonColumns maps document field names onto lessons table columns.  It
// doubles as the sort allow-list so that no caller-supplied text is ever
// interpolated into SQL.
var lessonColumns = map[string]string{
	model.FieldID:             "id",
	model.FieldTitle:          "title",
	model.FieldLocation:       "location",
	model.FieldPrice:          "price",
	model.FieldAvailableSeats: "available_seats",
	model.FieldDescription:    "description",
}

const lessonSelect = `SELECT id, title, location, price, available_seats, description FROM lessons`

// LessonRepo stores lessons in MySQL.  Only the fixed lesson fields have
// columns, so patches carrying other keys are rejected.
type LessonRepo struct {
	db *sql.DB
}

// NewLessonRepo constructs a LessonRepo with the given DB handle.
func NewLessonRepo(db *sql.DB) *LessonRepo {
	return &LessonRepo{db: db}
}

// FindLessons returns lessons matching q.Pattern ordered by q.SortBy.  The
// regular expression is applied case-insensitively with REGEXP_LIKE, and the
// numeric columns are cast to CHAR first so that "1" also matches 10 or 21.
func (r *LessonRepo) FindLessons(ctx context.Context, q LessonQuery) ([]model.Lesson, error) {
	col, ok := lessonColumns[q.SortBy]
	if !ok {
		col = "title"
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	query := lessonSelect
	var args []any
	if q.Pattern != "" {
		query += ` WHERE REGEXP_LIKE(title, ?, 'i')
			OR REGEXP_LIKE(location, ?, 'i')
			OR REGEXP_LIKE(description, ?, 'i')
			OR REGEXP_LIKE(CAST(price AS CHAR), ?, 'i')
			OR REGEXP_LIKE(CAST(available_seats AS CHAR), ?, 'i')`
		args = []any{q.Pattern, q.Pattern, q.Pattern, q.Pattern, q.Pattern}
	}
	query += " ORDER BY " + col + " " + dir + ", id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isRegexpError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Lesson, 0)
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// isRegexpError reports whether MySQL rejected a REGEXP_LIKE pattern
// (ER_REGEXP_* codes).
func isRegexpError(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number >= 3684 && me.Number <= 3697
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(s rowScanner) (*model.Lesson, error) {
	var (
		l  model.Lesson
		id uint64
	)
	if err := s.Scan(&id, &l.Title, &l.Location, &l.Price, &l.AvailableSeats, &l.Description); err != nil {
		return nil, err
	}
	l.ID = strconv.FormatUint(id, 10)
	return &l, nil
}

func parseLessonID(id string) (uint64, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrLessonNotFound
	}
	return n, nil
}

// GetLesson retrieves a lesson by id.  It returns ErrLessonNotFound when
// there is no matching row.
func (r *LessonRepo) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	n, err := parseLessonID(id)
	if err != nil {
		return nil, err
	}
	l, err := scanLesson(r.db.QueryRowContext(ctx, lessonSelect+` WHERE id = ?`, n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return l, nil
}

// DecrementSeats performs the check and the write in one statement so two
// concurrent orders cannot both consume the last seats.
func (r *LessonRepo) DecrementSeats(ctx context.Context, id string, n int) error {
	lid, err := parseLessonID(id)
	if err != nil {
		return err
	}
	const q = `UPDATE lessons SET available_seats = available_seats - ? WHERE id = ? AND available_seats >= ?`
	res, err := r.db.ExecContext(ctx, q, n, lid, n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}
	if _, err := r.GetLesson(ctx, id); err != nil {
		return err
	}
	return ErrInsufficientSeats
}

// IncrementSeats gives n seats back to the lesson.
func (r *LessonRepo) IncrementSeats(ctx context.Context, id string, n int) error {
	lid, err := parseLessonID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE lessons SET available_seats = available_seats + ? WHERE id = ?`, n, lid)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return ErrLessonNotFound
	}
	return nil
}

// UpdateLesson builds a single UPDATE from the patch.  Keys are applied in
// sorted order so the generated statement is deterministic.  The connection
// must report found rows (clientFoundRows=true) so that an update writing
// identical values is not mistaken for a missing lesson.
func (r *LessonRepo) UpdateLesson(ctx context.Context, id string, patch map[string]any) error {
	lid, err := parseLessonID(id)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(patch))
	for k := range patch {
		if k == model.FieldID {
			continue
		}
		if _, ok := lessonColumns[k]; !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedField, k)
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		_, err := r.GetLesson(ctx, id)
		return err
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		v, err := CoerceLessonField(k, patch[k])
		if err != nil {
			return err
		}
		sets = append(sets, lessonColumns[k]+" = ?")
		args = append(args, v)
	}
	args = append(args, lid)

	res, err := r.db.ExecContext(ctx, `UPDATE lessons SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrLessonNotFound
	}
	return nil
}

// InsertLessons inserts the lessons in one transaction and returns their
// generated ids in input order.  Extra keys are dropped.
func (r *LessonRepo) InsertLessons(ctx context.Context, lessons []model.Lesson) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO lessons (title, location, price, available_seats, description) VALUES (?, ?, ?, ?, ?)`
	ids := make([]string, 0, len(lessons))
	for _, l := range lessons {
		res, err := tx.ExecContext(ctx, q, l.Title, l.Location, l.Price, l.AvailableSeats, l.Description)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return ids, nil
}

// CountLessons returns the number of rows in lessons.
func (r *LessonRepo) CountLessons(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
