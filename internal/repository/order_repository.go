package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/iliyamo/skillhub-booking/internal/model"
)

// OrderRepo stores orders in MySQL.  Line items live in order_lessons,
// keyed by (order_id, position) so their input order is kept.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateOrder inserts the order row and its line items in one transaction
// and assigns the generated id to o.ID.
func (r *OrderRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO orders (full_name, phone_number) VALUES (?, ?)`, o.FullName, o.PhoneNumber)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if len(o.Lessons) > 0 {
		query := `INSERT INTO order_lessons (order_id, position, lesson_id, quantity) VALUES `
		args := make([]interface{}, 0, len(o.Lessons)*4)
		for i, item := range o.Lessons {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?)"
			args = append(args, id, i, item.LessonID, item.Quantity)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	o.ID = strconv.FormatInt(id, 10)
	return nil
}

// ListOrders returns every order with its line items, oldest first.
func (r *OrderRepo) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, full_name, phone_number FROM orders ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	out := make([]model.Order, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var (
			id uint64
			o  model.Order
		)
		if err := rows.Scan(&id, &o.FullName, &o.PhoneNumber); err != nil {
			rows.Close()
			return nil, err
		}
		o.ID = strconv.FormatUint(id, 10)
		o.Lessons = []model.LineItem{}
		index[id] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(out) == 0 {
		return out, nil
	}

	items, err := r.db.QueryContext(ctx, `SELECT order_id, lesson_id, quantity FROM order_lessons ORDER BY order_id ASC, position ASC`)
	if err != nil {
		return nil, err
	}
	defer items.Close()
	for items.Next() {
		var (
			orderID uint64
			item    model.LineItem
		)
		if err := items.Scan(&orderID, &item.LessonID, &item.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			out[i].Lessons = append(out[i].Lessons, item)
		}
	}
	if err := items.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
