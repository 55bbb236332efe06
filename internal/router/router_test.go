package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/psds-microservice/inquiry-service/internal/auth"
	"github.com/psds-microservice/inquiry-service/internal/errs"
	"github.com/psds-microservice/inquiry-service/internal/followup"
	"github.com/psds-microservice/inquiry-service/internal/handler"
	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/psds-microservice/inquiry-service/internal/service"
	"github.com/psds-microservice/inquiry-service/internal/service/mocks"
	"github.com/psds-microservice/inquiry-service/internal/storage"
	"github.com/psds-microservice/inquiry-service/internal/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testServer struct {
	handler   http.Handler
	tokens    *auth.Tokens
	users     *mocks.MockUserServicer
	inquiries *mocks.MockInquiryServicer
	accounts  map[uuid.UUID]model.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handler.RegisterValidators())

	ctrl := gomock.NewController(t)
	s := &testServer{
		tokens:    auth.NewTokens("test-secret", time.Hour),
		users:     mocks.NewMockUserServicer(ctrl),
		inquiries: mocks.NewMockInquiryServicer(ctrl),
		accounts:  map[uuid.UUID]model.User{},
	}
	s.users.EXPECT().GetByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, id uuid.UUID) (*model.User, error) {
			u, ok := s.accounts[id]
			if !ok {
				return nil, errs.ErrUserNotFound
			}
			return &u, nil
		}).AnyTimes()

	files, err := storage.NewLocal(t.TempDir(), PathUploads, 1024)
	require.NoError(t, err)
	authn := handler.NewAuthenticator(s.tokens, s.users, handler.NewUserCache(time.Minute))
	s.handler = New(Deps{
		Authn:     authn,
		Auth:      handler.NewAuthHandler(s.users, s.tokens, authn),
		Inquiries: handler.NewInquiryHandler(s.inquiries),
		Uploads:   handler.NewUploadHandler(files, 1024),
	})
	return s
}

func (s *testServer) login(t *testing.T, name string, role model.Role) string {
	t.Helper()
	u := model.User{ID: uuid.New(), UserID: string(role) + "001", Name: name, Role: role, IsActive: true}
	s.accounts[u.ID] = u
	token, _, err := s.tokens.Issue(u.ID, string(role))
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, handler.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, handler.Response) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	var resp handler.Response
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthAndSwagger(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, PathHealth, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, PathReady, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, PathSwagger+"/openapi.json", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"openapi": "3.0.3"`)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodGet, "/api/v1/inquiries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, handler.CodeUnauthorized, resp.Error.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/inquiries", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ghost, _, err := s.tokens.Issue(uuid.New(), "qc")
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := s.login(t, "Sari QC", model.RoleQC)
	for id, u := range s.accounts {
		u.IsActive = false
		s.accounts[id] = u
	}
	rec, resp = s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errs.ErrUserInactive.Error(), resp.Message)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	u := &model.User{ID: uuid.New(), UserID: "help001", Name: "Lisa Helpdesk", Role: model.RoleHelpdesk, IsActive: true}
	s.users.EXPECT().Login(gomock.Any(), "help001", "password123").Return(u, nil)
	s.users.EXPECT().Login(gomock.Any(), "help001", "nope").Return(nil, errs.ErrInvalidCredentials)

	rec, resp := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"user_id": "help001", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	id, err := s.tokens.Parse(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.NotContains(t, rec.Body.String(), "password")

	rec, resp = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"user_id": "help001", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handler.CodeUnauthorized, resp.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"user_id": "help001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"user_id": "qc002", "name": "QC Dua", "role": "qc", "password": "secret1"}

	rec, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", s.login(t, "Lisa", model.RoleHelpdesk), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := s.login(t, "Admin", model.RoleAdmin)
	s.users.EXPECT().Register(gomock.Any(), service.RegisterInput{UserID: "qc002", Name: "QC Dua", Role: "qc", Password: "secret1"}).
		Return(&model.User{ID: uuid.New(), UserID: "qc002", Name: "QC Dua", Role: model.RoleQC, IsActive: true}, nil)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", admin, body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	bad := map[string]string{"user_id": "x", "name": "X", "role": "boss", "password": "secret1"}
	rec, resp := s.do(t, http.MethodPost, "/api/v1/auth/register", admin, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "role", resp.Error.Field)
}

func TestListInquiries(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Ahmad", model.RoleProduksi)

	s.inquiries.EXPECT().List(gomock.Any(), service.ListQuery{
		Page: 2, Limit: 5, Status: model.StatusOnGoingQA, Search: "toko", SortBy: "nama_toko", SortOrder: "asc",
	}).Return(&service.ListResult{Items: []model.Inquiry{{NamaToko: "Toko A"}}, Page: 2, Limit: 5, Total: 6, Pages: 2}, nil)

	rec, resp := s.do(t, http.MethodGet, "/api/v1/inquiries?page=2&limit=5&status=on+going+qa&search=toko&sort_by=nama_toko&sort_order=asc", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Pagination)
	assert.EqualValues(t, 6, resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.Pages)

	s.inquiries.EXPECT().List(gomock.Any(), service.ListQuery{}).Return(&service.ListResult{Items: []model.Inquiry{}, Page: 1, Limit: 10}, nil)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/inquiries?status=all", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/v1/inquiries?status=done", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status", resp.Error.Field)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	stats := map[model.Status]int64{}
	for _, st := range model.AllStatuses {
		stats[st] = 0
	}
	stats[model.StatusPending] = 3
	s.inquiries.EXPECT().Stats(gomock.Any()).Return(stats, nil)

	rec, resp := s.do(t, http.MethodGet, "/api/v1/inquiries/stats/overview", s.login(t, "Lita", model.RoleFinance), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data, 9)
	assert.EqualValues(t, 3, data["pending"])
}

func TestCreateInquiry(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Lisa Helpdesk", model.RoleHelpdesk)
	s.inquiries.EXPECT().Create(gomock.Any(), workflow.Actor{Name: "Lisa Helpdesk", Role: model.RoleHelpdesk}, gomock.Any()).
		DoAndReturn(func(_ interface{}, _ workflow.Actor, in service.CreateInquiryInput) (*model.Inquiry, error) {
			assert.Equal(t, "Toko A", in.NamaToko)
			require.Len(t, in.Uploads, 1)
			assert.Equal(t, "a.png", in.Uploads[0].(workflow.Stored).Attachment.ID)
			return &model.Inquiry{ID: uuid.New(), NamaToko: in.NamaToko, Status: model.StatusPending}, nil
		})

	rec, resp := s.do(t, http.MethodPost, "/api/v1/inquiries", token, map[string]interface{}{
		"nomor_whatsapp_customer": "0811",
		"nama_toko":               "Toko A",
		"deskripsi":               "Ganti logo",
		"attachments":             []map[string]interface{}{{"id": "a.png", "name": "a.png", "url": "/uploads/a.png", "kind": "image"}},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)

	rec, resp = s.do(t, http.MethodPost, "/api/v1/inquiries", token, map[string]interface{}{"nama_toko": "Toko A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "nomor_whatsapp_customer", resp.Error.Field)
}

func TestActMapsOutcomes(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Ahmad Produksi", model.RoleProduksi)
	id := uuid.New()
	actor := workflow.Actor{Name: "Ahmad Produksi", Role: model.RoleProduksi}

	s.inquiries.EXPECT().Act(gomock.Any(), id, actor, workflow.ActionSubmitType, gomock.Any()).
		DoAndReturn(func(_ interface{}, _ uuid.UUID, _ workflow.Actor, _ workflow.Action, in service.ActInput) (*service.ActResult, error) {
			assert.Equal(t, "berbayar", in.Payload.Type)
			require.NotNil(t, in.Payload.Fee)
			assert.True(t, decimal.NewFromInt(150000).Equal(*in.Payload.Fee))
			return &service.ActResult{
				Inquiry: &model.Inquiry{ID: id, Status: model.StatusWaitForPayment},
				Outcome: workflow.Outcome{From: model.StatusPending, To: model.StatusWaitForPayment},
			}, nil
		})
	rec, resp := s.do(t, http.MethodPost, "/api/v1/inquiries/"+id.String()+"/actions/submit-type", token,
		map[string]interface{}{"type": "berbayar", "fee": 150000})
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "pending", data["from"])
	assert.Equal(t, "wait for payment", data["to"])

	s.inquiries.EXPECT().Act(gomock.Any(), id, actor, workflow.ActionComplete, gomock.Any()).
		Return(nil, &workflow.Rejection{Kind: workflow.KindInvalidTransition, Reason: "nope"})
	rec, resp = s.do(t, http.MethodPost, "/api/v1/inquiries/"+id.String()+"/actions/selesai", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "InvalidTransition", resp.Error.Code)

	s.inquiries.EXPECT().Act(gomock.Any(), id, actor, workflow.ActionSubmitType, gomock.Any()).
		Return(nil, workflow.Invalid("fee", "fee is required when type is berbayar"))
	rec, resp = s.do(t, http.MethodPost, "/api/v1/inquiries/"+id.String()+"/actions/submit_type", token, map[string]interface{}{"type": "berbayar"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "ValidationError", resp.Error.Code)
	assert.Equal(t, "fee", resp.Error.Field)

	s.inquiries.EXPECT().Act(gomock.Any(), id, actor, workflow.ActionProcess, gomock.Any()).Return(nil, errs.ErrInquiryNotFound)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/inquiries/"+id.String()+"/actions/proses", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.inquiries.EXPECT().Act(gomock.Any(), id, actor, workflow.ActionProcess, gomock.Any()).Return(nil, errors.New("db gone"))
	rec, resp = s.do(t, http.MethodPost, "/api/v1/inquiries/"+id.String()+"/actions/proses", token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, handler.CodeInternal, resp.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/inquiries/not-a-uuid/actions/proses", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActMultipartAndFollowUp(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Lisa Helpdesk", model.RoleHelpdesk)
	id := uuid.New()

	s.inquiries.EXPECT().Act(gomock.Any(), id, gomock.Any(), workflow.ActionEdit, gomock.Any()).
		DoAndReturn(func(_ interface{}, _ uuid.UUID, _ workflow.Actor, _ workflow.Action, in service.ActInput) (*service.ActResult, error) {
			require.NotNil(t, in.Payload.Origin.NamaToko)
			assert.Equal(t, "Toko Baru", *in.Payload.Origin.NamaToko)
			assert.Nil(t, in.Payload.Origin.Deskripsi)
			require.Len(t, in.Uploads, 1)
			p := in.Uploads[0].(workflow.Pending)
			assert.Equal(t, "foto.png", p.Name)
			return &service.ActResult{Inquiry: &model.Inquiry{ID: id}}, nil
		})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("nama_toko", "Toko Baru"))
	fw, err := mw.CreateFormFile("files", "foto.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inquiries/"+id.String()+"/actions/edit", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec, _ := s.send(t, req, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.inquiries.EXPECT().Act(gomock.Any(), id, gomock.Any(), workflow.ActionFollowUp, gomock.Any()).
		Return(&service.ActResult{
			Inquiry:  &model.Inquiry{ID: id},
			FollowUp: &followup.FollowUp{Number: "62811", Message: "Halo", URL: "https://wa.me/62811?text=Halo"},
		}, nil)
	rec, resp := s.do(t, http.MethodPost, "/api/v1/inquiries/"+id.String()+"/actions/follow-up", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f := resp.Data.(map[string]interface{})["follow_up"].(map[string]interface{})
	assert.Equal(t, "https://wa.me/62811?text=Halo", f["url"])
}

func TestActRejectsMalformedFee(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Ahmad Produksi", model.RoleProduksi)
	id := uuid.New()
	path := "/api/v1/inquiries/" + id.String() + "/actions/submit-type"

	for _, fee := range []interface{}{"abc", true, map[string]interface{}{"v": 1}} {
		rec, resp := s.do(t, http.MethodPost, path, token, map[string]interface{}{"type": "berbayar", "fee": fee})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "%v", fee)
		assert.Equal(t, "ValidationError", resp.Error.Code)
		assert.Equal(t, "fee", resp.Error.Field)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("type", "berbayar"))
	require.NoError(t, mw.WriteField("fee", "dua ratus"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec, resp := s.send(t, req, token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "ValidationError", resp.Error.Code)
	assert.Equal(t, "fee", resp.Error.Field)

	// A quoted number is still a number.
	s.inquiries.EXPECT().Act(gomock.Any(), id, gomock.Any(), workflow.ActionSubmitType, gomock.Any()).
		DoAndReturn(func(_ interface{}, _ uuid.UUID, _ workflow.Actor, _ workflow.Action, in service.ActInput) (*service.ActResult, error) {
			require.NotNil(t, in.Payload.Fee)
			assert.True(t, decimal.RequireFromString("150000.50").Equal(*in.Payload.Fee))
			return &service.ActResult{Inquiry: &model.Inquiry{ID: id}}, nil
		})
	rec, _ = s.do(t, http.MethodPost, path, token, map[string]interface{}{"type": "berbayar", "fee": "150000.50"})
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"type":`))
	req.Header.Set("Content-Type", "application/json")
	rec, resp = s.send(t, req, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handler.CodeBadRequest, resp.Error.Code)
}

func TestAllowedActions(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Lita Finance", model.RoleFinance)
	id := uuid.New()
	rule, ok := workflow.Default().Rule(model.RoleFinance, workflow.ActionUpdate)
	require.True(t, ok)
	s.inquiries.EXPECT().AllowedActions(gomock.Any(), id, model.RoleFinance).Return([]workflow.Rule{rule}, nil)

	rec, resp := s.do(t, http.MethodGet, "/api/v1/inquiries/"+id.String()+"/actions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "update", first["action"])
	assert.Equal(t, "paid off", first["to"])
}

func TestDeleteInquiry(t *testing.T) {
	s := newTestServer(t)
	id := uuid.New()
	s.inquiries.EXPECT().Delete(gomock.Any(), id, gomock.Any()).Return(errs.ErrForbidden)
	rec, _ := s.do(t, http.MethodDelete, "/api/v1/inquiries/"+id.String(), s.login(t, "Sari", model.RoleQC), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUploads(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "Lisa Helpdesk", model.RoleHelpdesk)

	upload := func(name string, size int) (*httptest.ResponseRecorder, handler.Response) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(bytes.Repeat([]byte("x"), size))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return s.send(t, req, token)
	}

	rec, resp := upload("bukti.pdf", 10)
	require.Equal(t, http.StatusCreated, rec.Code)
	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	a := items[0].(map[string]interface{})
	assert.Equal(t, "pdf", a["kind"])
	assert.Equal(t, "Lisa Helpdesk", a["uploaded_by"])

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/uploads/"+a["id"].(string), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/uploads/"+a["id"].(string), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = upload("virus.exe", 10)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "files", resp.Error.Field)

	rec, _ = upload("huge.png", 2048)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
