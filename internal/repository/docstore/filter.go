package docstore

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/repository"
)

// searchFilter builds the lesson filter for q.Pattern.  Text fields use
// $regex directly; numeric fields are converted with $toString first so the
// pattern matches their decimal representation ("1" matches 10 and 21).
func searchFilter(pattern string) bson.M {
	if pattern == "" {
		return bson.M{}
	}
	text := func(field string) bson.M {
		return bson.M{field: bson.M{"$regex": pattern, "$options": "i"}}
	}
	numeric := func(field string) bson.M {
		return bson.M{"$expr": bson.M{"$regexMatch": bson.M{
			"input":   bson.M{"$toString": "$" + field},
			"regex":   pattern,
			"options": "i",
		}}}
	}
	return bson.M{"$or": bson.A{
		text(model.FieldTitle),
		text(model.FieldLocation),
		text(model.FieldDescription),
		numeric(model.FieldPrice),
		numeric(model.FieldAvailableSeats),
	}}
}

// sortSpec orders by a single field; unknown fields are left to the server,
// which treats missing values as null.
func sortSpec(q repository.LessonQuery) bson.D {
	field := q.SortBy
	if field == "" {
		field = model.FieldTitle
	}
	dir := 1
	if q.Descending {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}}
}

// setDocument prepares a merge patch for $set.  "_id" is dropped.  Values
// that fit a typed lesson field are normalised (10.0 seats become int 10, so
// the seat filter keeps working); anything else is written as given.
func setDocument(patch map[string]any) bson.M {
	set := bson.M{}
	for k, v := range patch {
		if k == model.FieldID {
			continue
		}
		if cv, err := repository.CoerceLessonField(k, v); err == nil {
			v = cv
		}
		set[k] = v
	}
	return set
}
