package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// newTestContext builds an echo context for a JSON request. Handlers
// under test here bail out on validation before touching any
// repository, so the handlers can be constructed with zero values.
func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHealth(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/healthz", "")
	require.NoError(t, Health(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestGetUserID(t *testing.T) {
	cases := []struct {
		name    string
		value   interface{}
		want    uint64
		wantErr bool
	}{
		{"uint64", uint64(9), 9, false},
		{"int", 9, 9, false},
		{"int64", int64(9), 9, false},
		{"float64 from jwt claims", float64(9), 9, false},
		{"numeric string", "9", 9, false},
		{"garbage string", "abc", 0, true},
		{"missing", nil, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/", "")
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			got, err := getUserID(c)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestBookRejectsUnauthenticated(t *testing.T) {
	h := &CustomerHandler{}
	c, rec := newTestContext(http.MethodPost, "/v1/lots/1/book", `{"vehicle_number":"X"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Book(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookRejectsInvalidLotID(t *testing.T) {
	h := &CustomerHandler{}
	for _, bad := range []string{"abc", "0", "-1"} {
		c, rec := newTestContext(http.MethodPost, "/v1/lots/"+bad+"/book", `{"vehicle_number":"X"}`)
		c.Set("user_id", uint64(1))
		c.SetParamNames("id")
		c.SetParamValues(bad)

		require.NoError(t, h.Book(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestBookRequiresVehicleNumber(t *testing.T) {
	h := &CustomerHandler{}
	for _, body := range []string{`{}`, `{"vehicle_number":"   "}`} {
		c, rec := newTestContext(http.MethodPost, "/v1/lots/1/book", body)
		c.Set("user_id", uint64(1))
		c.SetParamNames("id")
		c.SetParamValues("1")

		require.NoError(t, h.Book(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestReleaseRejectsInvalidReservationID(t *testing.T) {
	h := &CustomerHandler{}
	c, rec := newTestContext(http.MethodPost, "/v1/reservations/zero/release", "")
	c.Set("user_id", uint64(1))
	c.SetParamNames("id")
	c.SetParamValues("zero")

	require.NoError(t, h.Release(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLotValidation(t *testing.T) {
	h := &AdminHandler{}
	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"blank name", `{"name":"  ","address":"a","postal_code":"p","price_per_hour":10,"max_spots":5}`},
		{"missing address", `{"name":"Lot","postal_code":"p","price_per_hour":10,"max_spots":5}`},
		{"zero price", `{"name":"Lot","address":"a","postal_code":"p","price_per_hour":0,"max_spots":5}`},
		{"negative price", `{"name":"Lot","address":"a","postal_code":"p","price_per_hour":-3,"max_spots":5}`},
		{"missing max_spots", `{"name":"Lot","address":"a","postal_code":"p","price_per_hour":10}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodPost, "/v1/lots", tc.body)
			require.NoError(t, h.CreateLot(c))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateLotRejectsInvalidInput(t *testing.T) {
	h := &AdminHandler{}

	c, rec := newTestContext(http.MethodPut, "/v1/lots/abc", `{"name":"x"}`)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.UpdateLot(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodPut, "/v1/lots/1", `{"price_per_hour":0}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateLot(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteLotRejectsInvalidID(t *testing.T) {
	h := &AdminHandler{}
	c, rec := newTestContext(http.MethodDelete, "/v1/lots/0", "")
	c.SetParamNames("id")
	c.SetParamValues("0")

	require.NoError(t, h.DeleteLot(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLotSpotsRejectsInvalidID(t *testing.T) {
	h := &PublicHandler{}
	c, rec := newTestContext(http.MethodGet, "/v1/lots/x/spots", "")
	c.SetParamNames("id")
	c.SetParamValues("x")

	require.NoError(t, h.GetLotSpots(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewHandlersRejectNilDependencies(t *testing.T) {
	require.Panics(t, func() { NewCustomerHandler(nil, nil, nil) })
	require.Panics(t, func() { NewAdminHandler(nil, nil, nil, nil) })
	require.Panics(t, func() { NewPublicHandler(nil, nil) })
}
