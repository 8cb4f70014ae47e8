package tracking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/race"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/trip"
)

func asUser(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		return c.Next()
	}
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, Race) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	var r Race
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		_ = json.NewDecoder(resp.Body).Decode(&r)
	}
	return resp, r
}

func TestTrackingHandlersRace(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	app := fiber.New()
	RegisterRoutes(app.Group("/tracking/races"), NewService(trip.NewService(mock)), asUser("user-1"))

	resp, r := call(t, app, http.MethodPost, "/tracking/races", CreateRequest{Track: "city-loop"})
	if resp.StatusCode != http.StatusCreated || r.ID == "" || r.State != race.Idle {
		t.Fatalf("create: %d %+v", resp.StatusCode, r)
	}
	id := r.ID

	resp, _ = call(t, app, http.MethodPost, "/tracking/races/"+id+"/tick", TickRequest{DistanceKm: ptr(0.1)})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("tick before start: %d", resp.StatusCode)
	}

	if resp, r = call(t, app, http.MethodPost, "/tracking/races/"+id+"/start", nil); resp.StatusCode != http.StatusOK || r.State != race.Running {
		t.Fatalf("start: %d %+v", resp.StatusCode, r)
	}
	for i := 0; i < 9; i++ {
		if resp, _ = call(t, app, http.MethodPost, "/tracking/races/"+id+"/tick", TickRequest{SpeedKmh: ptr(30), DistanceKm: ptr(0.05)}); resp.StatusCode != http.StatusOK {
			t.Fatalf("tick %d: %d", i, resp.StatusCode)
		}
	}
	resp, _ = call(t, app, http.MethodPost, "/tracking/races/"+id+"/tick", map[string]any{"lat": 100.0, "lng": 0.0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad fix: %d", resp.StatusCode)
	}

	resp, _ = call(t, app, http.MethodGet, "/tracking/races/"+id+"/result", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("result while running: %d", resp.StatusCode)
	}

	mock.ExpectQuery(`INSERT INTO laps`).
		WithArgs(pgxmock.AnyArg(), "user-1", "city-loop", 9, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 1.5, 30).
		WillReturnRows(pgxmock.NewRows([]string{"finished_at"}).AddRow(time.Now()))

	resp, r = call(t, app, http.MethodPost, "/tracking/races/"+id+"/stop", nil)
	if resp.StatusCode != http.StatusOK || r.State != race.Finished || r.Result == nil || r.Result.TotalPoints != 30 || r.LapID == "" {
		t.Fatalf("stop: %d %+v", resp.StatusCode, r)
	}

	req := httptest.NewRequest(http.MethodGet, "/tracking/races/"+id+"/result", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("result: %v", err)
	}
	var res race.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil || res.LapTime != "0:09" || res.BasePoints != 20 {
		t.Fatalf("unexpected result: %v %+v", err, res)
	}

	if resp, r = call(t, app, http.MethodGet, "/tracking/races/current", nil); resp.StatusCode != http.StatusOK || r.ID != id {
		t.Fatalf("current: %d %+v", resp.StatusCode, r)
	}
	if resp, r = call(t, app, http.MethodPost, "/tracking/races/"+id+"/reset", nil); resp.StatusCode != http.StatusOK || r.State != race.Idle {
		t.Fatalf("reset: %d %+v", resp.StatusCode, r)
	}
	if resp, _ = call(t, app, http.MethodDelete, "/tracking/races/"+id, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("discard: %d", resp.StatusCode)
	}
	if resp, _ = call(t, app, http.MethodGet, "/tracking/races/"+id, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after discard: %d", resp.StatusCode)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTrackingHandlersOtherUser(t *testing.T) {
	svc := NewService(&fakeLaps{})
	r, err := svc.Create("user-1", CreateRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app.Group("/tracking/races"), svc, asUser("user-2"))
	if resp, _ := call(t, app, http.MethodPost, "/tracking/races/"+r.ID+"/start", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a foreign race, got %d", resp.StatusCode)
	}
}

func TestTrackingHandlersRequireUser(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/tracking/races"), NewService(&fakeLaps{}), func(c *fiber.Ctx) error { return c.Next() })
	if resp, _ := call(t, app, http.MethodPost, "/tracking/races", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
