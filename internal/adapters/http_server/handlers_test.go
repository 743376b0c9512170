package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpserver "github.com/simonkochhh-source/vacation-planner-sub005/internal/adapters/http_server"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/app"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/storage/sqlstore"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/timeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlstore.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := sqlstore.New(db)
	ctx := context.Background()

	if err := repo.CreateTrip(ctx, domain.Trip{
		ID: "t1", Name: "Lakes", StartDate: "2025-07-01", EndDate: "2025-07-02",
		Destinations: []string{"a", "b", "c"},
	}); err != nil {
		t.Fatalf("seed trip: %v", err)
	}
	for _, d := range []domain.Destination{
		{ID: "a", TripID: "t1", Name: "A", Category: domain.CategoryAttraction, StartDate: "2025-07-01", EndDate: "2025-07-01"},
		{ID: "b", TripID: "t1", Name: "B", Category: domain.CategoryRestaurant, StartDate: "2025-07-01", EndDate: "2025-07-01"},
		{ID: "c", TripID: "t1", Name: "C", Category: domain.CategoryAttraction, StartDate: "2025-07-02", EndDate: "2025-07-02"},
	} {
		if err := repo.CreateDestination(ctx, d); err != nil {
			t.Fatalf("seed %s: %v", d.ID, err)
		}
	}

	agg := timeline.NewAggregator(timeline.DefaultCostPerKm)
	planner := app.NewPlanner(repo, app.NewDispatcher(repo, 1, 16, time.Second),
		app.NewTimelineService(repo, nil, time.Minute, agg), agg, app.Options{})
	t.Cleanup(func() { _ = planner.Close() })

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{P: planner})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestTimeline_ETag(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/v1/trips/t1/timeline")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var view domain.TimelineView
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Days) != 2 || view.Overall.Destinations != 3 {
		t.Fatalf("unexpected view: %+v", view)
	}

	etag := res.Header.Get("ETag")
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/trips/t1/timeline", nil)
	req.Header.Set("If-None-Match", etag)
	res2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusNotModified {
		t.Fatalf("status %d, want 304", res2.StatusCode)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name   string
		url    string
		body   string
		status int
	}{
		{"unknown trip", "/v1/trips/nope/drag", `{"destinationId":"a"}`, http.StatusNotFound},
		{"unknown destination", "/v1/trips/t1/drag", `{"destinationId":"zz"}`, http.StatusNotFound},
		{"missing id", "/v1/trips/t1/drag", `{}`, http.StatusBadRequest},
		{"drop without drag", "/v1/trips/t1/drag/drop", `{"day":"2025-07-01","targetIndex":0}`, http.StatusConflict},
		{"hover without drag", "/v1/trips/t1/drag/hover", `{"day":"2025-07-01","visualIndex":0}`, http.StatusConflict},
		{"bad json", "/v1/trips/t1/drag/hover", `{`, http.StatusBadRequest},
		{"bad position", "/v1/trips/t1/destinations", `{"name":"x","day":"2025-07-01","position":"middle"}`, http.StatusBadRequest},
		{"bad mode", "/v1/trips/t1/destinations", `{"name":"x","day":"2025-07-01","position":"initial","transportToNext":{"mode":"boat"}}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		res := post(t, ts.URL+c.url, c.body)
		if res.StatusCode != c.status {
			t.Fatalf("%s: status %d, want %d", c.name, res.StatusCode, c.status)
		}
		if ct := res.Header.Get("Content-Type"); ct != "application/problem+json" {
			t.Fatalf("%s: content type %q", c.name, ct)
		}
	}
}

func TestDragFlow(t *testing.T) {
	ts := newTestServer(t)

	if res := post(t, ts.URL+"/v1/trips/t1/drag", `{"destinationId":"a"}`); res.StatusCode != http.StatusOK {
		t.Fatalf("begin: %d", res.StatusCode)
	}
	res := post(t, ts.URL+"/v1/trips/t1/drag/hover", `{"day":"2025-07-01","visualIndex":1}`)
	var st domain.DragState
	_ = json.NewDecoder(res.Body).Decode(&st)
	if st.DragOverIndex == nil || *st.DragOverIndex != 1 || st.DropTargetIndex == nil || *st.DropTargetIndex != 2 {
		t.Fatalf("hover state = %+v", st)
	}

	res = post(t, ts.URL+"/v1/trips/t1/drag/drop", ``)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("drop: %d", res.StatusCode)
	}
	var out struct {
		Timeline domain.TimelineView `json:"timeline"`
		Drag     domain.DragState    `json:"drag"`
		Moved    bool                `json:"moved"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	day, _ := out.Timeline.Day("2025-07-01")
	if !out.Moved || out.Drag.Phase != domain.PhaseIdle || strings.Join(day.IDs(), ",") != "b,a" {
		t.Fatalf("drop result = %+v", out)
	}

	res2, err := http.Get(ts.URL + "/v1/trips/t1/drag")
	if err != nil {
		t.Fatalf("GET drag: %v", err)
	}
	defer res2.Body.Close()
	_ = json.NewDecoder(res2.Body).Decode(&st)
	if st.IsDragging {
		t.Fatalf("still dragging: %+v", st)
	}
}

func TestCancel(t *testing.T) {
	ts := newTestServer(t)
	post(t, ts.URL+"/v1/trips/t1/drag", `{"destinationId":"b"}`)

	res := post(t, ts.URL+"/v1/trips/t1/drag/cancel", `{"reason":"outside"}`)
	var st domain.DragState
	_ = json.NewDecoder(res.Body).Decode(&st)
	if res.StatusCode != http.StatusOK || st.Phase != domain.PhaseIdle {
		t.Fatalf("cancel: %d %+v", res.StatusCode, st)
	}
}

func TestInsertDestination(t *testing.T) {
	ts := newTestServer(t)

	res := post(t, ts.URL+"/v1/trips/t1/destinations",
		`{"name":"Pier","category":"attraction","day":"2025-07-02","position":"before","anchorIndex":0,
		  "coordinates":{"lat":46.0,"lng":8.9},"transportToNext":{"mode":"walking"}}`)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status %d", res.StatusCode)
	}
	var out struct {
		Destination domain.Destination  `json:"destination"`
		Timeline    domain.TimelineView `json:"timeline"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Destination.Category != domain.CategoryAttraction || out.Destination.Mode() != domain.Walking {
		t.Fatalf("destination = %+v", out.Destination)
	}
	day, _ := out.Timeline.Day("2025-07-02")
	if ids := day.IDs(); len(ids) != 2 || ids[0] != out.Destination.ID || ids[1] != "c" {
		t.Fatalf("day = %v", ids)
	}
}

func TestEstimate(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/v1/estimate?fromLat=48.1374&fromLng=11.5755&toLat=48.1374&toLng=11.5755&mode=walking")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	var est struct {
		DistanceKm float64 `json:"distanceKm"`
		Minutes    int     `json:"minutes"`
		Mode       string  `json:"mode"`
	}
	_ = json.NewDecoder(res.Body).Decode(&est)
	if res.StatusCode != http.StatusOK || est.DistanceKm != 0 || est.Minutes != 5 || est.Mode != "WALKING" {
		t.Fatalf("estimate = %d %+v", res.StatusCode, est)
	}

	for _, q := range []string{
		"fromLat=x",
		"fromLat=NaN&fromLng=0&toLat=0&toLng=0",
		"fromLat=0&fromLng=0&toLat=Inf&toLng=0",
		"fromLat=0&fromLng=-Inf&toLat=0&toLng=0",
	} {
		res2, err := http.Get(ts.URL + "/v1/estimate?" + q)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		res2.Body.Close()
		if res2.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", q, res2.StatusCode)
		}
	}
}
