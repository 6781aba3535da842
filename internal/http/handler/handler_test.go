package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"compliancehub/internal/auth"
	"compliancehub/internal/model"
	repoMocks "compliancehub/internal/repository/mocks"
	"compliancehub/internal/service"
	serviceMocks "compliancehub/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app      *fiber.App
	tokens   *auth.TokenService
	users    *repoMocks.MockUserRepository
	evidence *serviceMocks.MockEvidenceService
	requests *serviceMocks.MockRequestService
	audit    *serviceMocks.MockAuditService
	dbMock   sqlmock.Sqlmock
}

func newTestApp(t *testing.T) *testApp {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := new(repoMocks.MockUserRepository)
	evidence := new(serviceMocks.MockEvidenceService)
	requests := new(serviceMocks.MockRequestService)
	audit := new(serviceMocks.MockAuditService)

	tokens := auth.NewTokenService("test-signing-key", "compliancehub", 15*time.Minute, 24*time.Hour)
	authSvc := auth.NewService(users, tokens, audit)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, db, authSvc, evidence, requests, audit)

	return &testApp{
		app:      app,
		tokens:   tokens,
		users:    users,
		evidence: evidence,
		requests: requests,
		audit:    audit,
		dbMock:   dbMock,
	}
}

// bearerFor issues a real token for the user and wires the resolver lookup.
func (ta *testApp) bearerFor(t *testing.T, user *model.User) string {
	pair, err := ta.tokens.IssuePair(user)
	require.NoError(t, err)
	ta.users.On("FindByID", mock.Anything, user.UserID).Return(user, nil)
	return "Bearer " + pair.Access
}

func TestHealthEndpoint(t *testing.T) {
	ta := newTestApp(t)

	t.Run("healthy", func(t *testing.T) {
		ta.dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unhealthy", func(t *testing.T) {
		ta.dbMock.ExpectPing().WillReturnError(errors.New("db down"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ta := newTestApp(t)
		ta.users.On("Upsert", mock.Anything, mock.Anything).
			Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)
		ta.audit.On("Record", mock.Anything, mock.Anything, model.ActionLogin, model.ObjectUser, "B1", mock.Anything).
			Return(&model.AuditLogEntry{ID: "log-1"}, nil)

		body, _ := json.Marshal(map[string]string{"userId": "B1", "role": "buyer"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out map[string]any
		json.NewDecoder(resp.Body).Decode(&out)
		assert.NotEmpty(t, out["access"])
		assert.NotEmpty(t, out["refresh"])
	})

	t.Run("validation failure", func(t *testing.T) {
		ta := newTestApp(t)

		body, _ := json.Marshal(map[string]string{"userId": "F1", "role": "factory"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	ta := newTestApp(t)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/evidence", nil)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNAUTHORIZED", res.Error.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/evidence", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer nonsense")
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestListEvidenceEndpoint(t *testing.T) {
	ta := newTestApp(t)
	factory := &model.User{UserID: "F1", Role: model.RoleFactory, FactoryID: "FAC-001"}
	bearer := ta.bearerFor(t, factory)

	ta.evidence.On("ListEvidence", mock.Anything, factory).
		Return([]model.Evidence{{ID: uuid.NewString(), Name: "Cert", DocType: "certificate"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/evidence", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer)
	resp, _ := ta.app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data []model.Evidence `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	assert.Len(t, out.Data, 1)
	ta.evidence.AssertExpectations(t)
}

func TestCreateEvidenceEndpoint(t *testing.T) {
	ta := newTestApp(t)
	factory := &model.User{UserID: "F1", Role: model.RoleFactory, FactoryID: "FAC-001"}
	bearer := ta.bearerFor(t, factory)

	t.Run("success", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.WriteField("name", "ISO 9001")
		writer.WriteField("doc_type", "certificate")
		part, _ := writer.CreateFormFile("file", "cert.pdf")
		part.Write([]byte("%PDF-1.4"))
		writer.Close()

		ev := &model.Evidence{ID: uuid.NewString(), Name: "ISO 9001", DocType: "certificate", FactoryUserID: "F1"}
		ver := &model.EvidenceVersion{ID: uuid.NewString(), EvidenceID: ev.ID, VersionNumber: 1}
		ta.evidence.On("CreateEvidence", mock.Anything, factory, "ISO 9001", "certificate", mock.Anything).
			Return(ev, ver, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/evidence", body)
		req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		ta.evidence.AssertExpectations(t)
	})

	t.Run("missing file is a validation error", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.WriteField("name", "ISO 9001")
		writer.WriteField("doc_type", "certificate")
		writer.Close()

		ta.evidence.On("CreateEvidence", mock.Anything, factory, "ISO 9001", "certificate", mock.Anything).
			Return(nil, nil, fmt.Errorf("%w: version file is required", service.ErrValidation)).Once()

		req := httptest.NewRequest(http.MethodPost, "/evidence", body)
		req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
	})
}

func TestAddVersionEndpoint(t *testing.T) {
	ta := newTestApp(t)
	factory := &model.User{UserID: "F1", Role: model.RoleFactory, FactoryID: "FAC-001"}
	bearer := ta.bearerFor(t, factory)

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/evidence/not-a-uuid/versions", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("conflict from duplicate numbering", func(t *testing.T) {
		id := uuid.NewString()
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, _ := writer.CreateFormFile("file", "cert.pdf")
		part.Write([]byte("%PDF-1.4"))
		writer.Close()

		ta.evidence.On("AddVersion", mock.Anything, id, factory, mock.Anything).
			Return(nil, fmt.Errorf("%w: version number already assigned", service.ErrConflict)).Once()

		req := httptest.NewRequest(http.MethodPost, "/evidence/"+id+"/versions", body)
		req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestDownloadEndpoint(t *testing.T) {
	ta := newTestApp(t)
	buyer := &model.User{UserID: "B1", Role: model.RoleBuyer}
	bearer := ta.bearerFor(t, buyer)

	t.Run("presigned url", func(t *testing.T) {
		id := uuid.NewString()
		ta.evidence.On("DownloadURL", mock.Anything, id, buyer).
			Return("https://storage.local/evidence/abc.pdf?sig=x", nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/versions/"+id+"/download", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out map[string]string
		json.NewDecoder(resp.Body).Decode(&out)
		assert.Contains(t, out["url"], "sig=x")
	})

	t.Run("no access reads as not found", func(t *testing.T) {
		id := uuid.NewString()
		ta.evidence.On("DownloadURL", mock.Anything, id, buyer).
			Return("", fmt.Errorf("%w: version", service.ErrNotFound)).Once()

		req := httptest.NewRequest(http.MethodGet, "/versions/"+id+"/download", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateRequestEndpoint(t *testing.T) {
	ta := newTestApp(t)
	buyer := &model.User{UserID: "B1", Role: model.RoleBuyer}
	bearer := ta.bearerFor(t, buyer)

	t.Run("success", func(t *testing.T) {
		ta.requests.On("CreateRequest", mock.Anything, buyer, "F1", "Q3 audit pack", []string{"certificate"}).
			Return(&model.Request{ID: uuid.NewString(), Status: model.RequestPending}, nil).Once()

		body, _ := json.Marshal(createRequestBody{
			Title:         "Q3 audit pack",
			FactoryUserID: "F1",
			ItemDocTypes:  []string{"certificate"},
		})
		req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		ta.requests.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		ta.requests.On("CreateRequest", mock.Anything, buyer, "F1", "", []string(nil)).
			Return(nil, fmt.Errorf("%w: title is required", service.ErrValidation)).Once()

		body, _ := json.Marshal(createRequestBody{FactoryUserID: "F1"})
		req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestFulfillItemEndpoint(t *testing.T) {
	ta := newTestApp(t)
	factory := &model.User{UserID: "F1", Role: model.RoleFactory, FactoryID: "FAC-001"}
	bearer := ta.bearerFor(t, factory)

	reqID, itemID := uuid.NewString(), uuid.NewString()

	t.Run("success", func(t *testing.T) {
		ta.requests.On("FulfillItem", mock.Anything, reqID, itemID, factory, "ver-1").
			Return(&model.Request{ID: reqID, Status: model.RequestCompleted}, nil).Once()

		body, _ := json.Marshal(fulfillBody{VersionID: "ver-1"})
		req := httptest.NewRequest(http.MethodPost, "/requests/"+reqID+"/items/"+itemID+"/fulfill", bytes.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out model.Request
		json.NewDecoder(resp.Body).Decode(&out)
		assert.Equal(t, model.RequestCompleted, out.Status)
	})

	t.Run("repeat fulfillment conflicts", func(t *testing.T) {
		ta.requests.On("FulfillItem", mock.Anything, reqID, itemID, factory, "ver-1").
			Return(nil, fmt.Errorf("%w: item already fulfilled", service.ErrConflict)).Once()

		body, _ := json.Marshal(fulfillBody{VersionID: "ver-1"})
		req := httptest.NewRequest(http.MethodPost, "/requests/"+reqID+"/items/"+itemID+"/fulfill", bytes.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "CONFLICT", res.Error.Code)
	})
}

func TestCancelRequestEndpoint(t *testing.T) {
	ta := newTestApp(t)
	factory := &model.User{UserID: "F1", Role: model.RoleFactory, FactoryID: "FAC-001"}
	bearer := ta.bearerFor(t, factory)

	id := uuid.NewString()
	ta.requests.On("CancelRequest", mock.Anything, id, factory).
		Return(nil, fmt.Errorf("%w: only the buyer can cancel a request", service.ErrPermission)).Once()

	req := httptest.NewRequest(http.MethodPost, "/requests/"+id+"/cancel", nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer)
	resp, _ := ta.app.Test(req)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var res errorPayload
	json.NewDecoder(resp.Body).Decode(&res)
	assert.Equal(t, "PERMISSION_DENIED", res.Error.Code)
}

func TestGetRequestEndpoint(t *testing.T) {
	ta := newTestApp(t)
	buyer := &model.User{UserID: "B9", Role: model.RoleBuyer}
	bearer := ta.bearerFor(t, buyer)

	id := uuid.NewString()
	ta.requests.On("GetRequest", mock.Anything, id, buyer).
		Return(nil, fmt.Errorf("%w: request", service.ErrNotFound)).Once()

	req := httptest.NewRequest(http.MethodGet, "/requests/"+id, nil)
	req.Header.Set(fiber.HeaderAuthorization, bearer)
	resp, _ := ta.app.Test(req)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPendingRequestsEndpoint(t *testing.T) {
	t.Run("factory gets pending requests", func(t *testing.T) {
		ta := newTestApp(t)
		factory := &model.User{UserID: "F1", Role: model.RoleFactory, FactoryID: "FAC-001"}
		bearer := ta.bearerFor(t, factory)

		ta.requests.On("ListRequests", mock.Anything, factory, model.RequestPending).
			Return([]model.Request{{ID: uuid.NewString(), Status: model.RequestPending}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/factory/requests/pending", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Data []model.Request `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&out)
		assert.Len(t, out.Data, 1)
	})

	t.Run("non-factory gets an empty list", func(t *testing.T) {
		ta := newTestApp(t)
		buyer := &model.User{UserID: "B1", Role: model.RoleBuyer}
		bearer := ta.bearerFor(t, buyer)

		req := httptest.NewRequest(http.MethodGet, "/factory/requests/pending", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Data []model.Request `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&out)
		assert.Empty(t, out.Data)
	})
}

func TestAuditEndpoint(t *testing.T) {
	ta := newTestApp(t)
	admin := &model.User{UserID: "A1", Role: model.RoleAdmin}
	bearer := ta.bearerFor(t, admin)

	t.Run("returns one page", func(t *testing.T) {
		ta.audit.On("ListEntries", mock.Anything, 2, 50).
			Return(&service.AuditListResult{
				Items: []model.NormalizedEntry{{Action: "CREATE_REQUEST", ObjectType: "request"}},
				Total: 51,
			}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/audit?page=2&page_size=50", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out service.AuditListResult
		json.NewDecoder(resp.Body).Decode(&out)
		assert.Equal(t, 51, out.Total)
		assert.Len(t, out.Items, 1)
		assert.Equal(t, "CREATE_REQUEST", out.Items[0].Action)
	})

	t.Run("invalid page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/audit?page=abc", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRouting(t *testing.T) {
	ta := newTestApp(t)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}
