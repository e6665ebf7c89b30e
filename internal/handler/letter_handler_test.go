package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/middleware"
	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
	"github.com/sistem-rt/portal-api/pkg/response"
)

type letterServiceMock struct {
	submitResp  *models.LetterApplication
	submitErr   error
	submitReq   dto.SubmitLetterRequest
	approveResp *models.LetterApplication
	approveErr  error
	rejectResp  *models.LetterApplication
	rejectErr   error
	rejectReq   dto.RejectLetterRequest
	listQuery   dto.LetterQuery
}

func (m *letterServiceMock) Submit(ctx context.Context, req dto.SubmitLetterRequest, userID string) (*models.LetterApplication, error) {
	m.submitReq = req
	return m.submitResp, m.submitErr
}

func (m *letterServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LetterApplication, error) {
	return m.submitResp, m.submitErr
}

func (m *letterServiceMock) ListMine(ctx context.Context, userID string) ([]models.LetterApplication, error) {
	return nil, nil
}

func (m *letterServiceMock) ListAll(ctx context.Context, query dto.LetterQuery, actor *models.JWTClaims) ([]models.LetterApplicationRow, error) {
	m.listQuery = query
	return nil, nil
}

func (m *letterServiceMock) Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.LetterApplication, error) {
	return m.approveResp, m.approveErr
}

func (m *letterServiceMock) Reject(ctx context.Context, id string, req dto.RejectLetterRequest, actor *models.JWTClaims) (*models.LetterApplication, error) {
	m.rejectReq = req
	return m.rejectResp, m.rejectErr
}

func (m *letterServiceMock) Download(ctx context.Context, id string, actor *models.JWTClaims) (string, string, error) {
	return "", "", appErrors.ErrNotFound
}

func (m *letterServiceMock) DownloadURL(ctx context.Context, id string, actor *models.JWTClaims) (string, time.Time, error) {
	return "token", time.Now().Add(time.Minute), nil
}

func (m *letterServiceMock) ResolveDownloadToken(ctx context.Context, token string) (string, string, error) {
	return "", "", appErrors.ErrForbidden
}

func newGinContext(method, path string, body []byte, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.Request = req
	return c, w
}

func multipartBody(t *testing.T, fields map[string]string) ([]byte, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return buf.Bytes(), writer.FormDataContentType()
}

func residentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleResident}
}

func TestLetterHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &letterServiceMock{
		submitResp: &models.LetterApplication{ID: "app-1", ApplicationID: "SRT-1-XYZ01", Status: models.LetterStatusPending},
	}
	h := NewLetterHandler(mockSvc, nil, 0)

	body, contentType := multipartBody(t, map[string]string{
		"letter_type": "birth",
		"purpose":     "akta kelahiran",
		"details":     `{"babyName":"Siti"}`,
	})
	c, w := newGinContext(http.MethodPost, "/letters", body, contentType)
	c.Set(middleware.ContextUserKey, residentClaims())

	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, models.LetterTypeBirth, mockSvc.submitReq.LetterType)
	require.JSONEq(t, `{"babyName":"Siti"}`, string(mockSvc.submitReq.Details))

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Nil(t, envelope.Error)
}

func TestLetterHandlerSubmitRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewLetterHandler(&letterServiceMock{}, nil, 0)

	body, contentType := multipartBody(t, map[string]string{"letter_type": "birth"})
	c, w := newGinContext(http.MethodPost, "/letters", body, contentType)

	h.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLetterHandlerSubmitPropagatesValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &letterServiceMock{submitErr: appErrors.Clone(appErrors.ErrValidation, "Nama Bayi wajib diisi")}
	h := NewLetterHandler(mockSvc, nil, 0)

	body, contentType := multipartBody(t, map[string]string{"letter_type": "birth"})
	c, w := newGinContext(http.MethodPost, "/letters", body, contentType)
	c.Set(middleware.ContextUserKey, residentClaims())

	h.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	require.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
	require.Contains(t, envelope.Error.Message, "Nama Bayi")
}

func TestLetterHandlerApproveConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &letterServiceMock{approveErr: appErrors.Clone(appErrors.ErrConflict, "pengajuan sudah diproses")}
	h := NewLetterHandler(mockSvc, nil, 0)

	c, w := newGinContext(http.MethodPatch, "/admin/letters/app-1/approve", nil, "")
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	h.Approve(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLetterHandlerListAllParsesStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &letterServiceMock{}
	h := NewLetterHandler(mockSvc, nil, 0)

	c, w := newGinContext(http.MethodGet, "/admin/letters?status=Pending,+approved", nil, "")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	h.ListAll(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []models.LetterStatus{models.LetterStatusPending, models.LetterStatusApproved}, mockSvc.listQuery.Status)
}

func TestLetterHandlerRejectBindsNotes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &letterServiceMock{
		rejectResp: &models.LetterApplication{ID: "app-1", Status: models.LetterStatusRejected},
	}
	h := NewLetterHandler(mockSvc, nil, 0)

	payload, _ := json.Marshal(dto.RejectLetterRequest{Notes: "dokumen tidak lengkap"})
	c, w := newGinContext(http.MethodPatch, "/admin/letters/app-1/reject", payload, "application/json")
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	h.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "dokumen tidak lengkap", mockSvc.rejectReq.Notes)
}

func TestLetterHandlerRejectBindsNotesFromChunkedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &letterServiceMock{
		rejectResp: &models.LetterApplication{ID: "app-1", Status: models.LetterStatusRejected},
	}
	h := NewLetterHandler(mockSvc, nil, 0)

	payload, _ := json.Marshal(dto.RejectLetterRequest{Notes: "data tidak sesuai"})
	c, w := newGinContext(http.MethodPatch, "/admin/letters/app-1/reject", payload, "application/json")
	// Chunked transfer encoding advertises no length up front.
	c.Request.ContentLength = -1
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	h.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "data tidak sesuai", mockSvc.rejectReq.Notes)
}

func TestLetterHandlerRejectAcceptsEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &letterServiceMock{
		rejectResp: &models.LetterApplication{ID: "app-1", Status: models.LetterStatusRejected},
	}
	h := NewLetterHandler(mockSvc, nil, 0)

	c, w := newGinContext(http.MethodPatch, "/admin/letters/app-1/reject", nil, "application/json")
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	h.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, mockSvc.rejectReq.Notes)
}
