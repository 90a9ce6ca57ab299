// Package docstore keeps lessons and orders in MongoDB collections.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/repository"
)

// LessonRepo wraps the lessons collection.
type LessonRepo struct {
	coll *mongo.Collection
}

// NewLessonRepo binds a LessonRepo to coll.
func NewLessonRepo(coll *mongo.Collection) *LessonRepo {
	return &LessonRepo{coll: coll}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrLessonNotFound
	}
	return oid, nil
}

// FindLessons runs the search filter with a single-field sort.
func (r *LessonRepo) FindLessons(ctx context.Context, q repository.LessonQuery) ([]model.Lesson, error) {
	cur, err := r.coll.Find(ctx, searchFilter(q.Pattern), options.Find().SetSort(sortSpec(q)))
	if err != nil {
		if isRegexError(err) {
			return nil, fmt.Errorf("%w: %v", repository.ErrInvalidPattern, err)
		}
		return nil, fmt.Errorf("find lessons: %w", err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode lessons: %w", err)
	}
	out := make([]model.Lesson, 0, len(docs))
	for _, d := range docs {
		out = append(out, lessonFromDoc(d))
	}
	return out, nil
}

// GetLesson fetches one lesson by its ObjectID hex.
func (r *LessonRepo) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrLessonNotFound
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	l := lessonFromDoc(doc)
	return &l, nil
}

// DecrementSeats uses a filtered $inc so the check and the write happen in
// one server-side operation.
func (r *LessonRepo) DecrementSeats(ctx context.Context, id string, n int) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, model.FieldAvailableSeats: bson.M{"$gte": n}},
		bson.M{"$inc": bson.M{model.FieldAvailableSeats: -n}},
	)
	if err != nil {
		return fmt.Errorf("decrement seats: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if err := r.exists(ctx, oid); err != nil {
		return err
	}
	return repository.ErrInsufficientSeats
}

// IncrementSeats returns n seats to the lesson.
func (r *LessonRepo) IncrementSeats(ctx context.Context, id string, n int) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{model.FieldAvailableSeats: n}})
	if err != nil {
		return fmt.Errorf("increment seats: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrLessonNotFound
	}
	return nil
}

// UpdateLesson applies patch with $set.  An empty patch only checks that the
// lesson exists.
func (r *LessonRepo) UpdateLesson(ctx context.Context, id string, patch map[string]any) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	set := setDocument(patch)
	if len(set) == 0 {
		return r.exists(ctx, oid)
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrLessonNotFound
	}
	return nil
}

func (r *LessonRepo) exists(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count lesson: %w", err)
	}
	if n == 0 {
		return repository.ErrLessonNotFound
	}
	return nil
}

// InsertLessons inserts the lessons with InsertMany; ids are returned as hex.
func (r *LessonRepo) InsertLessons(ctx context.Context, lessons []model.Lesson) ([]string, error) {
	if len(lessons) == 0 {
		return nil, nil
	}
	docs := make([]interface{}, 0, len(lessons))
	for _, l := range lessons {
		docs = append(docs, lessonToDoc(l))
	}
	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("insert lessons: %w", err)
	}
	ids := make([]string, 0, len(res.InsertedIDs))
	for _, id := range res.InsertedIDs {
		ids = append(ids, idString(id))
	}
	return ids, nil
}

// CountLessons counts every document in the collection.
func (r *LessonRepo) CountLessons(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return n, nil
}

// isRegexError reports whether the server refused the search pattern.
// $regex reports code 51091; $regexMatch uses 51111 and older servers
// answer BadValue with a "Regular expression" message.
func isRegexError(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(51091) || se.HasErrorCode(51111) ||
		(se.HasErrorCode(2) && se.HasErrorMessage("egular expression"))
}

func idString(v any) string {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case string:
		return t
	}
	return fmt.Sprint(v)
}

func lessonToDoc(l model.Lesson) bson.M {
	doc := bson.M{
		model.FieldTitle:          l.Title,
		model.FieldLocation:       l.Location,
		model.FieldPrice:          l.Price,
		model.FieldAvailableSeats: l.AvailableSeats,
		model.FieldDescription:    l.Description,
	}
	// loosely typed values written by open updates replace the typed ones
	for k, v := range l.Extra {
		doc[k] = v
	}
	return doc
}

// lessonFromDoc maps a raw document onto model.Lesson.  Numbers may arrive
// as int32, int64, double or decimal depending on how the document was
// written; values that fit no typed field end up in Extra.
func lessonFromDoc(doc bson.M) model.Lesson {
	var l model.Lesson
	for k, v := range doc {
		switch t := v.(type) {
		case primitive.Decimal128:
			if f, err := strconv.ParseFloat(t.String(), 64); err == nil {
				v = f
			}
		case primitive.Null:
			v = nil
		}
		if k == model.FieldID {
			l.ID = idString(v)
			continue
		}
		l.Set(k, v)
	}
	return l
}
