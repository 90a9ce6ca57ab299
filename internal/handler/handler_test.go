package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/skillhub-booking/internal/model"
	"github.com/iliyamo/skillhub-booking/internal/repository"
	"github.com/iliyamo/skillhub-booking/internal/repository/memstore"
	"github.com/iliyamo/skillhub-booking/internal/service"
)

type countingPurger struct{ calls int }

func (p *countingPurger) Purge(context.Context) error { p.calls++; return nil }

type fixture struct {
	e     *echo.Echo
	store *memstore.Store
	ids   []string
	cache *countingPurger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	ids, err := store.InsertLessons(context.Background(), []model.Lesson{
		{Title: "Yoga", Location: "Park", Price: 10, AvailableSeats: 5, Description: "Morning flow"},
		{Title: "Chess", Location: "Library", Price: 21, AvailableSeats: 12, Description: "Openings"},
		{Title: "Art", Location: "Studio", Price: 35, AvailableSeats: 1, Description: "Watercolour in the park"},
	})
	require.NoError(t, err)

	cache := &countingPurger{}
	lh := NewLessonHandler(service.NewLessonService(store), cache, zap.NewNop())
	oh := NewOrderHandler(service.NewOrderService(store, store, nil, zap.NewNop()), cache, zap.NewNop())

	e := echo.New()
	e.GET("/collection/lessons", lh.List)
	e.GET("/search/lessons", lh.Search)
	e.PUT("/collection/lessons/:id", lh.Update)
	e.GET("/collection/orders", oh.List)
	e.POST("/collection/orders", oh.Place)
	return &fixture{e: e, store: store, ids: ids, cache: cache}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func titles(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var lessons []model.Lesson
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lessons))
	out := make([]string, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, l.Title)
	}
	return out
}

func TestListLessons_DefaultsToTitleAscending(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/collection/lessons", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Art", "Chess", "Yoga"}, titles(t, rec))
}

func TestListLessons_SortByPriceDescending(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/collection/lessons?sortBy=price&order=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Art", "Chess", "Yoga"}, titles(t, rec))

	rec = f.do(http.MethodGet, "/collection/lessons?sortBy=price", "")
	assert.Equal(t, []string{"Yoga", "Chess", "Art"}, titles(t, rec))
}

func TestListLessons_UnknownSortFieldIsBadRequest(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/collection/lessons?sortBy=colour", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decodeMap(t, rec)["error"])
}

func TestSearchLessons(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/search/lessons?q=yoga&sortBy=price&order=asc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Yoga"}, titles(t, rec))

	rec = f.do(http.MethodGet, "/search/lessons?q=PARK&sortBy=price&order=desc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Art", "Yoga"}, titles(t, rec))

	// numeric fields match on their decimal form
	rec = f.do(http.MethodGet, "/search/lessons?q=21", "")
	assert.Equal(t, []string{"Chess"}, titles(t, rec))

	rec = f.do(http.MethodGet, "/search/lessons", "")
	assert.Len(t, titles(t, rec), 3)

	rec = f.do(http.MethodGet, "/search/lessons?q=%28", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrder_DecrementsSeats(t *testing.T) {
	f := newFixture(t)
	body := `{"fullName":"Ada","phoneNumber":"555","lessons":[{"_id":"` + f.ids[0] + `","quantity":2}]}`

	rec := f.do(http.MethodPost, "/collection/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	m := decodeMap(t, rec)
	assert.Equal(t, "Order placed successfully.", m["message"])
	assert.NotEmpty(t, m["orderId"])
	assert.Equal(t, 1, f.cache.calls)

	l, err := f.store.GetLesson(context.Background(), f.ids[0])
	require.NoError(t, err)
	assert.Equal(t, 3, l.AvailableSeats)

	rec = f.do(http.MethodGet, "/collection/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []model.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, m["orderId"], orders[0].ID)
	assert.Equal(t, "Ada", orders[0].FullName)
	assert.Equal(t, []model.LineItem{{LessonID: f.ids[0], Quantity: 2}}, orders[0].Lessons)
}

func TestPlaceOrder_NotEnoughSeats(t *testing.T) {
	f := newFixture(t)
	body := `{"fullName":"Ada","phoneNumber":"555","lessons":[` +
		`{"_id":"` + f.ids[1] + `","quantity":1},{"_id":"` + f.ids[2] + `","quantity":2}]}`

	rec := f.do(http.MethodPost, "/collection/orders", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Not enough seats available in Art.", decodeMap(t, rec)["error"])
	assert.Zero(t, f.cache.calls)

	// nothing was written
	l, err := f.store.GetLesson(context.Background(), f.ids[1])
	require.NoError(t, err)
	assert.Equal(t, 12, l.AvailableSeats)
	orders, err := f.store.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_UnknownLesson(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/collection/orders",
		`{"fullName":"Ada","phoneNumber":"555","lessons":[{"_id":"missing","quantity":1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Not enough seats available in the selected lesson.", decodeMap(t, rec)["error"])
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{
		"missing name":  `{"phoneNumber":"555","lessons":[{"_id":"x","quantity":1}]}`,
		"missing phone": `{"fullName":"Ada","lessons":[{"_id":"x","quantity":1}]}`,
		"no lessons":    `{"fullName":"Ada","phoneNumber":"555","lessons":[]}`,
		"malformed":     `{"fullName":`,
		"bad quantity":  `{"fullName":"Ada","phoneNumber":"555","lessons":[{"_id":"x","quantity":"two"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/collection/orders", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeMap(t, rec)["error"])
		})
	}
}

func TestUpdateLesson(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPut, "/collection/lessons/"+f.ids[0], `{"availableSeats":10,"_id":"ignored"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lesson updated successfully.", decodeMap(t, rec)["message"])
	assert.Equal(t, 1, f.cache.calls)

	l, err := f.store.GetLesson(context.Background(), f.ids[0])
	require.NoError(t, err)
	assert.Equal(t, 10, l.AvailableSeats)
	assert.Equal(t, f.ids[0], l.ID)
	assert.Equal(t, "Yoga", l.Title)
}

func TestUpdateLesson_NotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPut, "/collection/lessons/does-not-exist", `{"title":"X"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Lesson not found", decodeMap(t, rec)["error"])
	assert.Zero(t, f.cache.calls)
}

func TestUpdateLesson_InvalidBody(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{`not json`, `[1,2]`, `null`} {
		rec := f.do(http.MethodPut, "/collection/lessons/"+f.ids[0], body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestUpdateLesson_OpenModeStoresValuesAsGiven(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{`{"price":"free"}`, `{"availableSeats":10.5}`, `{"title":null}`} {
		rec := f.do(http.MethodPut, "/collection/lessons/"+f.ids[0], body)
		assert.Equal(t, http.StatusOK, rec.Code, body)
	}

	rec := f.do(http.MethodGet, "/search/lessons?q=Morning", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "free", got[0]["price"])
	assert.Equal(t, 10.5, got[0]["availableSeats"])
	assert.Nil(t, got[0]["title"])
	assert.Contains(t, got[0], "title")
	assert.Equal(t, "Park", got[0]["location"])
}

func TestUpdateLesson_StrictModeRejectsWrongTypes(t *testing.T) {
	store := memstore.New()
	ids, err := store.InsertLessons(context.Background(), []model.Lesson{{Title: "Yoga", Price: 10, AvailableSeats: 5}})
	require.NoError(t, err)
	h := NewLessonHandler(service.NewLessonService(store, service.WithStrictUpdates(true)), nil, zap.NewNop())
	e := echo.New()
	e.PUT("/collection/lessons/:id", h.Update)

	for _, body := range []string{`{"price":"free"}`, `{"availableSeats":10.5}`, `{"title":null}`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/collection/lessons/"+ids[0], strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

type brokenLessons struct{}

func (brokenLessons) List(context.Context, string, string) ([]model.Lesson, error) {
	return nil, errors.New("connection refused")
}
func (brokenLessons) Search(context.Context, string, string, string) ([]model.Lesson, error) {
	return nil, errors.New("connection refused")
}
func (brokenLessons) Update(context.Context, string, map[string]any) error {
	return repository.ErrLessonNotFound
}

func TestInfrastructureErrorsAreHidden(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := NewLessonHandler(brokenLessons{}, nil, zap.New(core))
	e := echo.New()
	e.GET("/collection/lessons", h.List)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collection/lessons", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch lessons"}`, rec.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "connection refused")
}

func TestIndexAndHealth(t *testing.T) {
	e := echo.New()
	e.GET("/", Index)
	e.GET("/healthz", Health)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/collection/lessons"`)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
