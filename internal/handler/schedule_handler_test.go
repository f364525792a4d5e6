package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/novaticstar/hoosgottime/internal/dto"
	internalmiddleware "github.com/novaticstar/hoosgottime/internal/middleware"
	"github.com/novaticstar/hoosgottime/internal/models"
)

type schedulePlannerMock struct {
	captured dto.RunScheduleRequest
	userID   string
}

func (m *schedulePlannerMock) Run(ctx context.Context, userID string, req dto.RunScheduleRequest) (*dto.ScheduleResponse, error) {
	m.userID = userID
	m.captured = req
	return &dto.ScheduleResponse{From: "2026-03-02", Days: req.Days}, nil
}

func (m *schedulePlannerMock) Get(ctx context.Context, userID string, query dto.ScheduleQuery) (*dto.ScheduleResponse, error) {
	m.userID = userID
	return &dto.ScheduleResponse{From: "2026-03-02", Days: 7}, nil
}

func (m *schedulePlannerMock) Export(ctx context.Context, userID, format string, query dto.ScheduleQuery) ([]byte, string, error) {
	return []byte("Date,Start\n"), "text/csv", nil
}

func authedContext(t *testing.T, w *httptest.ResponseRecorder, req *http.Request) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Email: "s@x.edu"})
	return c
}

func TestScheduleHandlerRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &schedulePlannerMock{}
	handler := &ScheduleHandler{service: mockSvc}

	req, _ := http.NewRequest(http.MethodPost, "/schedule/run", bytes.NewReader([]byte(`{"days":14}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c := authedContext(t, w, req)

	handler.Run(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u1", mockSvc.userID)
	require.Equal(t, 14, mockSvc.captured.Days)
}

func TestScheduleHandlerRunRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &schedulePlannerMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/schedule/run", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Run(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScheduleHandlerExportSetsAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &schedulePlannerMock{}}

	req, _ := http.NewRequest(http.MethodGet, "/schedule/export?format=csv", nil)
	w := httptest.NewRecorder()
	c := authedContext(t, w, req)

	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
}
