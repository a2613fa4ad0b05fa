package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/conf"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/observability"
)

// newTestController boots the API against an in-memory store seeded with
// a small SOP catalog: a faba bean crop with one labor and one nutrition
// row at week offset 2 and a labor row at offset 5.
func newTestController(t *testing.T) (*Controller, *datastore.SQLiteStore) {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = "file::memory:?cache=private"
	settings.WebServer.Port = "0"
	settings.Forecast.Weeks = 4

	store := &datastore.SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.ReplaceProcedureEntries([]datastore.ProcedureEntry{
		{ID: 1, CropCode: "FB", WeekOffset: 2, Name: "Trellising", Domain: "labor", Workers: 4, Days: 3, Unit: "person-days", Position: 1},
		{ID: 2, CropCode: "FB", WeekOffset: 5, Name: "Pruning", Domain: "labor", Workers: 2, Days: 1, Unit: "person-days", Position: 2},
		{ID: 3, CropCode: "FB", WeekOffset: 2, Name: "Calcium nitrate", Domain: "nutrition", RatePerHectare: 25, Unit: "kg", Position: 3},
	}))

	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	e := echo.New()
	return New(e, store, settings, metrics), store
}

func doRequest(t *testing.T, c *Controller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// seedPhase creates a phase sown on 2025-01-06 so that the week of
// 2025-01-20 is at offset 2.
func seedPhase(t *testing.T, c *Controller) uint {
	t.Helper()
	rec := doRequest(t, c, http.MethodPost, "/api/v1/phases", map[string]any{
		"cropCode":     "FB",
		"label":        "FB block A",
		"sowingDate":   "2025-01-06",
		"farmName":     "North farm",
		"areaHectares": "2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp PhaseResponse
	decodeInto(t, rec, &resp)
	return resp.ID
}

func TestPhaseLifecycle(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	rec := doRequest(t, c, http.MethodGet, "/api/v1/phases/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got PhaseResponse
	decodeInto(t, rec, &got)
	// The string area coerces to a float at the boundary.
	assert.Equal(t, 2.0, got.AreaHectares)
	assert.Equal(t, "2025-01-06", got.SowingDate)

	rec = doRequest(t, c, http.MethodPut, "/api/v1/phases/1", map[string]any{
		"cropCode":     "FB",
		"label":        "FB block A",
		"sowingDate":   "2025-01-06",
		"farmName":     "North farm",
		"areaHectares": 2.5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, c, http.MethodPost, "/api/v1/phases/1/archive", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases", nil)
	var active []PhaseResponse
	decodeInto(t, rec, &active)
	assert.Empty(t, active)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases?include_archived=true", nil)
	var all []PhaseResponse
	decodeInto(t, rec, &all)
	assert.Len(t, all, 1)
}

func TestPhaseValidation(t *testing.T) {
	c, _ := newTestController(t)

	rec := doRequest(t, c, http.MethodPost, "/api/v1/phases", map[string]any{
		"cropCode":     "FB",
		"label":        "bad date",
		"sowingDate":   "06/01/2025",
		"areaHectares": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, c, http.MethodPost, "/api/v1/phases", map[string]any{
		"cropCode":     "FB",
		"label":        "negative area",
		"sowingDate":   "2025-01-06",
		"areaHectares": -1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveActivities(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	rec := doRequest(t, c, http.MethodGet, "/api/v1/phases/1/weeks/2025-01-20/activities", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var activities []ActivityResponse
	decodeInto(t, rec, &activities)
	require.Len(t, activities, 2)

	// 4 workers x 3 days x 2 ha for the labor row, 25 kg/ha x 2 ha for
	// the nutrition row, in catalog order.
	assert.Equal(t, "Trellising", activities[0].Label)
	assert.Equal(t, 24.0, activities[0].TotalQuantity)
	assert.Equal(t, "Calcium nitrate", activities[1].Label)
	assert.Equal(t, 50.0, activities[1].TotalQuantity)

	// Domain filter narrows the set.
	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases/1/weeks/2025-01-20/activities?domain=nutrition", nil)
	decodeInto(t, rec, &activities)
	require.Len(t, activities, 1)
	assert.Equal(t, "nutrition", activities[0].Domain)

	// A pre-sowing week resolves empty, not an error.
	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases/1/weeks/2024-12-30/activities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &activities)
	assert.Empty(t, activities)

	// Week identifiers must be Mondays.
	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases/1/weeks/2025-01-21/activities", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverrideRoundTrip(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	// Removing the default labor row leaves only nutrition in the week.
	rec := doRequest(t, c, http.MethodPut, "/api/v1/overrides", map[string]any{
		"phaseId":   1,
		"entryId":   1,
		"domain":    "labor",
		"weekStart": "2025-01-20",
		"action":    "remove",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Adding the week-5 pruning row pulls it into week 2.
	rec = doRequest(t, c, http.MethodPut, "/api/v1/overrides", map[string]any{
		"phaseId":   1,
		"entryId":   2,
		"domain":    "labor",
		"weekStart": "2025-01-20",
		"action":    "add",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases/1/weeks/2025-01-20/activities?domain=labor", nil)
	var activities []ActivityResponse
	decodeInto(t, rec, &activities)
	require.Len(t, activities, 1)
	assert.Equal(t, "Pruning", activities[0].Label)

	// Deleting the remove restores the default row.
	rec = doRequest(t, c, http.MethodDelete, "/api/v1/overrides", map[string]any{
		"phaseId":   1,
		"entryId":   1,
		"domain":    "labor",
		"weekStart": "2025-01-20",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases/1/weeks/2025-01-20/activities?domain=labor", nil)
	decodeInto(t, rec, &activities)
	assert.Len(t, activities, 2)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases/1/weeks/2025-01-20/overrides", nil)
	var overrides []OverrideResponse
	decodeInto(t, rec, &overrides)
	assert.Len(t, overrides, 1)
}

func TestOverrideValidation(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	rec := doRequest(t, c, http.MethodPut, "/api/v1/overrides", map[string]any{
		"phaseId":   1,
		"entryId":   1,
		"domain":    "labor",
		"weekStart": "2025-01-21",
		"action":    "remove",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, c, http.MethodPut, "/api/v1/overrides", map[string]any{
		"phaseId":   1,
		"entryId":   1,
		"domain":    "labor",
		"weekStart": "2025-01-20",
		"action":    "suspend",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleSaveAndLoad(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	days := map[string][]int{
		"1-1": {0, 2},
		"1-3": {1},
	}
	rec := doRequest(t, c, http.MethodPut, "/api/v1/schedule", map[string]any{
		"phaseIds":  []uint{1},
		"weekStart": "2025-01-20",
		"days":      days,
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doRequest(t, c, http.MethodGet, "/api/v1/schedule?phase_id=1&week_start=2025-01-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loaded map[string][]int
	decodeInto(t, rec, &loaded)
	assert.Equal(t, days, loaded)

	// A second save replaces the whole set; the dropped activity is gone.
	rec = doRequest(t, c, http.MethodPut, "/api/v1/schedule", map[string]any{
		"phaseIds":  []uint{1},
		"weekStart": "2025-01-20",
		"days":      map[string][]int{"1-1": {4}},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, c, http.MethodGet, "/api/v1/schedule?phase_id=1&week_start=2025-01-20", nil)
	decodeInto(t, rec, &loaded)
	assert.Equal(t, map[string][]int{"1-1": {4}}, loaded)

	// Activities outside the declared scope are rejected.
	rec = doRequest(t, c, http.MethodPut, "/api/v1/schedule", map[string]any{
		"phaseIds":  []uint{1},
		"weekStart": "2025-01-20",
		"days":      map[string][]int{"2-1": {0}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleDoesNotPersist(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	rec := doRequest(t, c, http.MethodPost, "/api/v1/schedule/toggle", map[string]any{
		"phaseId":          1,
		"procedureEntryId": 1,
		"weekStart":        "2025-01-20",
		"day":              3,
		"action":           "add",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var toggled map[string][]int
	decodeInto(t, rec, &toggled)
	assert.Equal(t, []int{3}, toggled["1-1"])

	// Nothing was saved: the persisted map is still empty.
	rec = doRequest(t, c, http.MethodGet, "/api/v1/schedule?phase_id=1&week_start=2025-01-20", nil)
	decodeInto(t, rec, &toggled)
	assert.Empty(t, toggled)
}

func TestComplianceWeek(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	// Trellising scheduled Monday, Wednesday and Friday.
	rec := doRequest(t, c, http.MethodPut, "/api/v1/schedule", map[string]any{
		"phaseIds":  []uint{1},
		"weekStart": "2025-01-20",
		"days":      map[string][]int{"1-1": {0, 2, 4}},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// A labor log on Wednesday is the only actual.
	rec = doRequest(t, c, http.MethodPost, "/api/v1/records", map[string]any{
		"phaseId":       1,
		"date":          "2025-01-22",
		"kind":          "labor-log",
		"productOrTask": "Trellising",
		"quantity":      8,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, c, http.MethodGet,
		"/api/v1/compliance?phase_id=1&week_start=2025-01-20&today=2025-01-22&domain=labor", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ComplianceResponse
	decodeInto(t, rec, &resp)
	require.Len(t, resp.Entries, 1)

	statuses := resp.Entries[0].Statuses
	assert.Equal(t, "missed", statuses[0])
	assert.Equal(t, "", statuses[1])
	assert.Equal(t, "done", statuses[2])
	assert.Equal(t, "upcoming", statuses[4])

	assert.Equal(t, 1, resp.Summary.Done)
	assert.Equal(t, 1, resp.Summary.Missed)
	require.NotNil(t, resp.Summary.Rate)
	assert.Equal(t, 50, *resp.Summary.Rate)
}

func TestComplianceRateNullWhenNothingElapsed(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	rec := doRequest(t, c, http.MethodPut, "/api/v1/schedule", map[string]any{
		"phaseIds":  []uint{1},
		"weekStart": "2025-01-20",
		"days":      map[string][]int{"1-1": {4}},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Evaluated before any scheduled day has passed, the rate has no
	// denominator and stays null.
	rec = doRequest(t, c, http.MethodGet,
		"/api/v1/compliance?phase_id=1&week_start=2025-01-20&today=2025-01-20&domain=labor", nil)
	var resp ComplianceResponse
	decodeInto(t, rec, &resp)
	assert.Nil(t, resp.Summary.Rate)
}

func TestVarianceReport(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	// 47.5 kg applied against 50 kg expected is a -5% variance.
	rec := doRequest(t, c, http.MethodPost, "/api/v1/records", map[string]any{
		"phaseId":       1,
		"date":          "2025-01-21",
		"kind":          "feeding",
		"productOrTask": "Calcium nitrate",
		"quantity":      "47.5",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, c, http.MethodGet,
		"/api/v1/variance?phase_id=1&week_start=2025-01-20&domain=nutrition", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp VarianceReportResponse
	decodeInto(t, rec, &resp)
	require.Len(t, resp.Rows, 1)

	row := resp.Rows[0]
	assert.Equal(t, 50.0, row.Expected)
	assert.Equal(t, 47.5, row.Actual)
	assert.InDelta(t, -5.0, row.VariancePercent, 1e-9)
	assert.InDelta(t, 95.0, row.Score, 1e-9)
	assert.Equal(t, "green", row.Tier)
	assert.Nil(t, resp.Budget)
}

func TestLaborVarianceCarriesBudget(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	rec := doRequest(t, c, http.MethodGet,
		"/api/v1/variance?phase_id=1&week_start=2025-01-20&domain=labor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp VarianceReportResponse
	decodeInto(t, rec, &resp)
	require.NotNil(t, resp.Budget)
	assert.Equal(t, 24.0, resp.Budget.Expected)
	// No labor logged yet: utilization 0 is green under the inverted
	// tiers, only overspend goes red.
	assert.Equal(t, "green", resp.Budget.Tier)
}

func TestFieldRecords(t *testing.T) {
	c, _ := newTestController(t)
	seedPhase(t, c)

	rec := doRequest(t, c, http.MethodPost, "/api/v1/records", map[string]any{
		"phaseId":       1,
		"date":          "2025-01-22",
		"kind":          "harvest-log",
		"productOrTask": "FB harvest",
		"quantity":      120,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created FieldRecordResponse
	decodeInto(t, rec, &created)
	assert.NotEmpty(t, created.ID)

	rec = doRequest(t, c, http.MethodPost, "/api/v1/records", map[string]any{
		"phaseId":       1,
		"date":          "2025-01-22",
		"kind":          "watering",
		"productOrTask": "x",
		"quantity":      1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, c, http.MethodPost, "/api/v1/records", map[string]any{
		"phaseId":       1,
		"date":          "2025-01-22",
		"kind":          "feeding",
		"productOrTask": "x",
		"quantity":      -3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/phases/1/records?from=2025-01-20&to=2025-01-26", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []FieldRecordResponse
	decodeInto(t, rec, &records)
	require.Len(t, records, 1)

	rec = doRequest(t, c, http.MethodDelete, "/api/v1/records/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, c, http.MethodDelete, "/api/v1/records/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPhaseForecast(t *testing.T) {
	c, store := newTestController(t)
	seedPhase(t, c)

	require.NoError(t, store.SaveCropProfile(&datastore.CropProfile{
		CropCode:         "FB",
		NurseryDays:      30,
		OutgrowingDays:   40,
		HarvestWeeks:     4,
		YieldPerHectare:  10,
		RejectRate:       10,
		WeekDistribution: "[0.25, 0.25, 0.25, 0.25]",
	}))

	rec := doRequest(t, c, http.MethodGet, "/api/v1/phases/1/forecast?weeks=6", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp PhaseForecastResponse
	decodeInto(t, rec, &resp)
	assert.Len(t, resp.Mondays, 6)
	assert.Len(t, resp.Tons, 6)

	rec = doRequest(t, c, http.MethodGet, "/api/v1/forecast", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var farm ForecastResponse
	decodeInto(t, rec, &farm)
	require.Len(t, farm.Farms, 1)
	assert.Equal(t, "North farm", farm.Farms[0].FarmName)
	require.Len(t, farm.Farms[0].Crops, 1)
	assert.Len(t, farm.Total, 4)
}
