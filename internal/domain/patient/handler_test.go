package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospease/hospease/internal/platform/validate"
)

func newTestHandler() (*Handler, *echo.Echo) {
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(NewService(newMockRepo())), e
}

func post(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Create(t *testing.T) {
	h, e := newTestHandler()
	c, rec := post(e, `{"name":"Asha","email":"asha@example.com","date_of_birth":"1990-04-12","gender":"female"}`)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Success bool    `json:"success"`
		Message string  `json:"message"`
		Data    Patient `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "patient registered", body.Message)
	require.NotNil(t, body.Data.DateOfBirth)
	assert.Equal(t, "1990-04-12", *body.Data.DateOfBirth)
}

func TestHandler_Create_BadDate(t *testing.T) {
	h, e := newTestHandler()
	c, _ := post(e, `{"name":"Asha","date_of_birth":"12/04/1990"}`)

	err := h.Create(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "date_of_birth must be a date in YYYY-MM-DD format", he.Message)
}

func TestHandler_Create_DuplicateEmail(t *testing.T) {
	h, e := newTestHandler()
	c, _ := post(e, `{"name":"Asha","email":"asha@example.com"}`)
	require.NoError(t, h.Create(c))

	c, _ = post(e, `{"name":"Asha Two","email":"asha@example.com"}`)
	err := h.Create(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestHandler_Get_NotFound(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.Get(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestHandler_List(t *testing.T) {
	h, e := newTestHandler()
	for _, name := range []string{"Asha", "Ravi"} {
		c, _ := post(e, `{"name":"`+name+`"}`)
		require.NoError(t, h.Create(c))
	}

	rec := httptest.NewRecorder()
	require.NoError(t, h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=1", nil), rec)))

	var body struct {
		Data    []Patient `json:"data"`
		Total   int       `json:"total"`
		HasMore bool      `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.True(t, body.HasMore)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Asha", body.Data[0].Name)
}
