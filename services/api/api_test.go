package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmquick/pkg/render"
	"farmquick/services/farm"
	"farmquick/services/quick"
)

var (
	chickensID = uuid.MustParse("5f0e1e4c-3b1a-4a55-9a0e-000000000001")
	coopID     = uuid.MustParse("5f0e1e4c-3b1a-4a55-9a0e-0000000000c0")
)

type fakeFarm struct {
	producers []quick.AssetOption
	locations map[uuid.UUID][]uuid.UUID
	records   []quick.Record
	sinkErr   error
	pingErr   error

	created   []farm.NewAsset
	createErr error
	filters   []farm.AssetFilter
	moves     []farm.Movement
	moveErr   error
}

func (f *fakeFarm) FindEggProducers(context.Context) ([]quick.AssetOption, error) {
	return f.producers, nil
}

func (f *fakeFarm) LocationsOf(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return f.locations[id], nil
}

func (f *fakeFarm) Create(_ context.Context, rec quick.Record) error {
	if f.sinkErr != nil {
		return f.sinkErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeFarm) Ping(context.Context) error { return f.pingErr }

func (f *fakeFarm) CreateAsset(_ context.Context, in farm.NewAsset) (farm.Asset, error) {
	if f.createErr != nil {
		return farm.Asset{}, f.createErr
	}
	f.created = append(f.created, in)
	return farm.Asset{ID: uuid.New(), Name: in.Name, Type: in.Type, Status: farm.StatusActive}, nil
}

func (f *fakeFarm) ListAssets(_ context.Context, filter farm.AssetFilter) ([]farm.Asset, error) {
	f.filters = append(f.filters, filter)
	return []farm.Asset{{ID: chickensID, Name: "Chickens"}}, nil
}

func (f *fakeFarm) RecordMovement(_ context.Context, mv farm.Movement) (farm.Log, error) {
	if f.moveErr != nil {
		return farm.Log{}, f.moveErr
	}
	f.moves = append(f.moves, mv)
	return farm.Log{ID: uuid.New(), Type: farm.LogTypeActivity, IsMovement: true}, nil
}

type testServer struct {
	api      *API
	handler  http.Handler
	farm     *fakeFarm
	registry *prometheus.Registry
	changed  int
}

func newTestServer(t *testing.T, f *fakeFarm) *testServer {
	t.Helper()

	engine, err := render.New()
	require.NoError(t, err)
	form, err := quick.NewEggsForm(f, f, f, engine, quick.DefaultOptions())
	require.NoError(t, err)

	ts := &testServer{farm: f, registry: prometheus.NewRegistry()}
	a, err := New(f, []Form{form}, Config{
		Registry:      ts.registry,
		AssetsChanged: func() { ts.changed++ },
	})
	require.NoError(t, err)

	ts.api = a
	ts.handler, err = a.Routes()
	require.NoError(t, err)
	return ts
}

func (ts *testServer) submissions(form, outcome string) float64 {
	return testutil.ToFloat64(ts.api.metrics.submissions.WithLabelValues(form, outcome))
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New(nil, nil, Config{})
	assert.EqualError(t, err, "store is required")

	_, err = New(&fakeFarm{}, nil, Config{})
	assert.EqualError(t, err, "at least one form is required")
}

func TestHealthAndReadiness(t *testing.T) {
	f := &fakeFarm{}
	ts := newTestServer(t, f)

	rec := ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = ts.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	f.pingErr = errors.New("db down")
	rec = ts.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "db down")
}

func TestListForms(t *testing.T) {
	ts := newTestServer(t, &fakeFarm{})

	rec := ts.do(http.MethodGet, "/v1/quick", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Forms []quick.Definition `json:"forms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Forms, 1)
	assert.Equal(t, "eggs", body.Forms[0].ID)
	assert.Equal(t, "Eggs", body.Forms[0].Label)
}

func TestRenderEggsForm(t *testing.T) {
	ts := newTestServer(t, &fakeFarm{producers: []quick.AssetOption{{ID: chickensID, Label: "Chickens"}}})

	rec := ts.do(http.MethodGet, "/v1/quick/eggs?tz=Europe/Paris", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var schema struct {
		Timezone string `json:"timezone"`
		Fields   []struct {
			Name        string          `json:"name"`
			Type        string          `json:"type"`
			Description string          `json:"description"`
			Default     json.RawMessage `json:"default"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Equal(t, "Europe/Paris", schema.Timezone)
	require.Len(t, schema.Fields, 4)

	assets := schema.Fields[2]
	assert.Equal(t, "assets", assets.Name)
	assert.Equal(t, "checkboxes", assets.Type)
	assert.Contains(t, assets.Description, "layer asset that these eggs came from")
	assert.JSONEq(t, `["`+chickensID.String()+`"]`, string(assets.Default))

	rec = ts.do(http.MethodGet, "/v1/quick/eggs?tz=Mars/Olympus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/quick/seeding", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderWithoutProducers(t *testing.T) {
	ts := newTestServer(t, &fakeFarm{})

	rec := ts.do(http.MethodGet, "/v1/quick/eggs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"markup"`)
	assert.Contains(t, rec.Body.String(), "Produces eggs")
}

func TestSubmitEggsForm(t *testing.T) {
	f := &fakeFarm{
		producers: []quick.AssetOption{{ID: chickensID, Label: "Chickens"}},
		locations: map[uuid.UUID][]uuid.UUID{chickensID: {coopID}},
	}
	ts := newTestServer(t, f)

	body := `{"date":"2024-05-01T07:30:00Z","quantity":12,"assets":{"` + chickensID.String() + `":true}}`
	rec := ts.do(http.MethodPost, "/v1/quick/eggs", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Log quick.Record `json:"log"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Collected 12 egg(s)", resp.Log.Name)
	assert.Equal(t, []uuid.UUID{chickensID}, resp.Log.Assets)
	assert.Equal(t, []uuid.UUID{coopID}, resp.Log.Locations)
	assert.Len(t, f.records, 1)

	assert.Equal(t, 1.0, ts.submissions("eggs", outcomeCreated))
	assert.Equal(t, 12.0, testutil.ToFloat64(ts.api.metrics.eggs))
}

func TestSubmitEggsFormRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		field  string
	}{
		{name: "negative quantity", target: "/v1/quick/eggs", body: `{"date":"2024-05-01T07:30:00Z","quantity":-3}`, field: "quantity"},
		{name: "missing date", target: "/v1/quick/eggs", body: `{"quantity":3}`, field: "date"},
		{name: "unknown field", target: "/v1/quick/eggs", body: `{"quantity":3,"colour":"brown"}`},
		{name: "empty body", target: "/v1/quick/eggs", body: ""},
		{name: "bad timezone", target: "/v1/quick/eggs?tz=Nowhere", body: `{"quantity":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFarm{}
			ts := newTestServer(t, f)

			rec := ts.do(http.MethodPost, tt.target, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, f.records)
			assert.Equal(t, 1.0, ts.submissions("eggs", outcomeInvalid))

			if tt.field == "" {
				return
			}
			var resp struct {
				Error  string               `json:"error"`
				Fields []fieldErrorResponse `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Len(t, resp.Fields, 1)
			assert.Equal(t, tt.field, resp.Fields[0].Field)
		})
	}
}

func TestSubmitEggsFormSinkFailure(t *testing.T) {
	f := &fakeFarm{sinkErr: context.DeadlineExceeded}
	ts := newTestServer(t, f)

	rec := ts.do(http.MethodPost, "/v1/quick/eggs", `{"date":"2024-05-01T07:30:00Z","quantity":1}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, 1.0, ts.submissions("eggs", outcomeError))

	f.sinkErr = errors.New("insert failed")
	rec = ts.do(http.MethodPost, "/v1/quick/eggs", `{"date":"2024-05-01T07:30:00Z","quantity":1}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAssetsEndpoints(t *testing.T) {
	f := &fakeFarm{}
	ts := newTestServer(t, f)

	rec := ts.do(http.MethodGet, "/v1/assets?produces_eggs=true&status=active&location="+coopID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.filters, 1)
	require.NotNil(t, f.filters[0].ProducesEggs)
	assert.True(t, *f.filters[0].ProducesEggs)
	assert.Equal(t, "active", *f.filters[0].Status)
	assert.Equal(t, coopID, *f.filters[0].Location)

	rec = ts.do(http.MethodGet, "/v1/assets?produces_eggs=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/assets", `{"name":"Hens","type":"group","produces_eggs":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.created, 1)
	assert.True(t, f.created[0].ProducesEggs)
	assert.Equal(t, 1, ts.changed)

	f.createErr = farm.ErrInvalid
	rec = ts.do(http.MethodPost, "/v1/assets", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, ts.changed)
}

func TestRecordMovementEndpoint(t *testing.T) {
	f := &fakeFarm{}
	ts := newTestServer(t, f)

	rec := ts.do(http.MethodPost, "/v1/logs/movements",
		`{"assets":["`+chickensID.String()+`"],"locations":["`+coopID.String()+`"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.moves, 1)
	assert.Equal(t, []uuid.UUID{coopID}, f.moves[0].Locations)

	f.moveErr = farm.ErrNotFound
	rec = ts.do(http.MethodPost, "/v1/logs/movements", `{"assets":[],"locations":[]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeFarm{})
	ts.do(http.MethodPost, "/v1/quick/eggs", `{"quantity":-1}`)

	rec := ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `farmquick_quick_submissions_total{form="eggs",outcome="invalid"} 1`)
}
