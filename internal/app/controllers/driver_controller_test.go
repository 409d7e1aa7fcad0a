package controllers

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/app/services"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
)

type stubDriverService struct {
	services.DriverService
	token string
	err   error
}

func (s *stubDriverService) CurrentQRToken(_ context.Context, _ int64) (string, error) {
	return s.token, s.err
}

type stubBoardingService struct {
	services.BoardingService
	resp    *dto.BoardResponse
	err     error
	gotUser int64
	gotReq  *dto.BoardRequest
}

func (s *stubBoardingService) VerifyAndBoard(_ context.Context, studentID int64, req *dto.BoardRequest) (*dto.BoardResponse, error) {
	s.gotUser = studentID
	s.gotReq = req
	return s.resp, s.err
}

func driverRouter(d *stubDriverService, b *stubBoardingService, userID int64) *gin.Engine {
	c := NewDriverController(d, b, zerolog.Nop())
	r := gin.New()
	r.Use(asUser(userID))
	r.GET("/dashboard/driver/qr.png", c.QRCode)
	r.POST("/dashboard/student/board/", c.Board)
	return r
}

func TestBoardCreatedAndRetry(t *testing.T) {
	b := &stubBoardingService{resp: &dto.BoardResponse{Message: "Boarding successful!", Bus: "BUS-7", Time: "08:05 AM", Created: true}}
	r := driverRouter(&stubDriverService{}, b, 42)

	w := doJSON(t, r, http.MethodPost, "/dashboard/student/board/", `{"qr_token":"7:abc:sig","latitude":12.5,"longitude":77.1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(42), b.gotUser)
	assert.Equal(t, "7:abc:sig", b.gotReq.QRToken)
	require.NotNil(t, b.gotReq.Latitude)
	assert.InDelta(t, 12.5, *b.gotReq.Latitude, 1e-9)
	assert.Contains(t, string(decode(t, w).Data), `"bus":"BUS-7"`)

	b.resp = &dto.BoardResponse{Message: "Already boarded", Status: dto.BoardingStatusAlreadyBoarded}
	w = doJSON(t, r, http.MethodPost, "/dashboard/student/board/", `{"qr_token":"7:abc:sig"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"status":"already_boarded"`)
}

func TestBoardMapsServiceErrors(t *testing.T) {
	b := &stubBoardingService{err: apperrors.ErrQRExpired}
	r := driverRouter(&stubDriverService{}, b, 42)

	w := doJSON(t, r, http.MethodPost, "/dashboard/student/board/", `{"qr_token":"7:abc:sig"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(dto.ErrorCodeQRExpired), env.Error.Code)
	assert.Equal(t, "QR Code has expired. Please ask driver to refresh.", env.Error.Message)

	b.err = apperrors.ErrNotAssignedBus
	w = doJSON(t, r, http.MethodPost, "/dashboard/student/board/", `{"qr_token":"7:abc:sig"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env = decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(dto.ErrorCodeNotAssignedBus), env.Error.Code)
	assert.Equal(t, "You are not assigned to this bus.", env.Error.Message)

	b.err = apperrors.NewForbiddenError("Your account is blocked. Contact your administrator.")
	w = doJSON(t, r, http.MethodPost, "/dashboard/student/board/", `{"qr_token":"7:abc:sig"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
	env = decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Your account is blocked. Contact your administrator.", env.Error.Message)
}

func TestBoardRejectsOutOfRangeLatitude(t *testing.T) {
	b := &stubBoardingService{}
	r := driverRouter(&stubDriverService{}, b, 42)

	w := doJSON(t, r, http.MethodPost, "/dashboard/student/board/", `{"qr_token":"x","latitude":120}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, b.gotReq)
}

func TestQRCodeRendersPNG(t *testing.T) {
	r := driverRouter(&stubDriverService{token: "7:abc:sig"}, &stubBoardingService{}, 5)

	w := doJSON(t, r, http.MethodGet, "/dashboard/driver/qr.png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestQRCodeWithoutBus(t *testing.T) {
	r := driverRouter(&stubDriverService{err: apperrors.ErrNoBusAssigned}, &stubBoardingService{}, 5)

	w := doJSON(t, r, http.MethodGet, "/dashboard/driver/qr.png", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
