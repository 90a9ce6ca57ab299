package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iliyamo/skillhub-booking/internal/model"
)

type lineItemDoc struct {
	LessonID string `bson:"_id"`
	Quantity int    `bson:"quantity"`
}

type orderDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	FullName    string             `bson:"fullName"`
	PhoneNumber string             `bson:"phoneNumber"`
	Lessons     []lineItemDoc      `bson:"lessons"`
}

func orderToDoc(o *model.Order) orderDoc {
	doc := orderDoc{FullName: o.FullName, PhoneNumber: o.PhoneNumber, Lessons: make([]lineItemDoc, 0, len(o.Lessons))}
	for _, item := range o.Lessons {
		doc.Lessons = append(doc.Lessons, lineItemDoc{LessonID: item.LessonID, Quantity: item.Quantity})
	}
	return doc
}

func (d orderDoc) toModel() model.Order {
	o := model.Order{ID: d.ID.Hex(), FullName: d.FullName, PhoneNumber: d.PhoneNumber, Lessons: make([]model.LineItem, 0, len(d.Lessons))}
	for _, item := range d.Lessons {
		o.Lessons = append(o.Lessons, model.LineItem{LessonID: item.LessonID, Quantity: item.Quantity})
	}
	return o
}

// OrderRepo wraps the orders collection.
type OrderRepo struct {
	coll *mongo.Collection
}

// NewOrderRepo binds an OrderRepo to coll.
func NewOrderRepo(coll *mongo.Collection) *OrderRepo {
	return &OrderRepo{coll: coll}
}

// CreateOrder inserts the order as one document.
func (r *OrderRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	res, err := r.coll.InsertOne(ctx, orderToDoc(o))
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID = idString(res.InsertedID)
	return nil
}

// ListOrders returns every order in natural order.
func (r *OrderRepo) ListOrders(ctx context.Context) ([]model.Order, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}
