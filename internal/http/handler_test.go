package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/podryad/internal/amountwords"
	"github.com/nurpe/podryad/internal/apperr"
	"github.com/nurpe/podryad/internal/auth"
	"github.com/nurpe/podryad/internal/contracttype"
	"github.com/nurpe/podryad/internal/dbtest"
	"github.com/nurpe/podryad/internal/excel"
	"github.com/nurpe/podryad/internal/http/middleware"
	"github.com/nurpe/podryad/internal/model"
	"github.com/nurpe/podryad/internal/numbering"
	"github.com/nurpe/podryad/internal/repository"
	"github.com/nurpe/podryad/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	tokens *auth.Parser
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	database := dbtest.Open(t)
	log := zerolog.Nop()

	templateRepo := repository.NewTemplateRepository(database)
	types, err := templateRepo.ListContractTypes(context.Background())
	require.NoError(t, err)
	registry, err := contracttype.NewRegistry(types)
	require.NoError(t, err)

	templates := service.NewTemplateService(templateRepo, registry, log)
	documents := service.NewDocumentService(service.DocumentServiceDeps{
		Templates: templateRepo,
		Documents: repository.NewDocumentRepository(database),
		Registry:  registry,
		Numbers:   numbering.NewAuthority(repository.NewSequenceRepository(database), 3, log),
		Words:     amountwords.Rubles{},
		Excel:     excel.NewGenerator(),
	}, log)

	tokens := auth.NewParser("test-secret")
	handler := NewHandler(templates, documents, log)
	router := NewRouter(handler, middleware.Auth(tokens), []string{"*"}, "test", log)
	return &testServer{router: router, tokens: tokens}
}

func (s *testServer) do(t *testing.T, role model.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, err := s.tokens.Sign(model.Principal{UserID: uuid.New(), Role: role}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestContractAndActFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, model.RoleManager, http.MethodPost, "/api/v1/contract-templates", gin.H{
		"name":          "ДП-выкладчик",
		"contract_type": "operation",
		"work_services": []string{"Выкладка товара"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	templateID := created["template"].(map[string]any)["id"].(string)
	companionID := created["companion"].(map[string]any)["id"].(string)

	w = s.do(t, model.RoleManager, http.MethodPut, "/api/v1/act-templates/"+companionID+"/costs", gin.H{
		"unit_costs": []string{"4.50"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, model.RoleUser, http.MethodGet, "/api/v1/contracts/next-number?unit_code=11118&date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "01/25/11118", decode(t, w)["number"])

	w = s.do(t, model.RoleManager, http.MethodPost, "/api/v1/contracts", gin.H{
		"contract_template_id": templateID,
		"act_template_id":      companionID,
		"unit_code":            "11118",
		"contractor_name":      "Иванов Иван Иванович",
		"date":                 "2025-03-10",
		"lines":                []gin.H{{"quantity": "120"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	contract := decode(t, w)
	assert.Equal(t, "01/25/11118", contract["number"])
	assert.Equal(t, "540.00", contract["total_amount"])
	contractID := contract["id"].(string)

	w = s.do(t, model.RoleUser, http.MethodPost, "/api/v1/contracts/"+contractID+"/acts", gin.H{
		"act_template_id": companionID,
		"lines":           []gin.H{{"quantity": "120"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	act := decode(t, w)
	assert.Equal(t, "001", act["number"])
	actID := act["id"].(string)

	w = s.do(t, model.RoleUser, http.MethodGet, "/api/v1/acts/"+actID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "пятьсот сорок рублей ноль копеек", decode(t, w)["amount_words"])

	w = s.do(t, model.RoleUser, http.MethodGet, "/api/v1/acts/"+actID+"/xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "act-01-25-11118-001.xlsx")

	// no pdf renderer in this setup
	w = s.do(t, model.RoleUser, http.MethodGet, "/api/v1/acts/"+actID+"/pdf", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", decode(t, w)["error"])

	w = s.do(t, model.RoleUser, http.MethodGet, "/api/v1/contracts/"+contractID+"/acts/next-number", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "002", decode(t, w)["number"])
}

func TestDeleteTemplateConflictBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, model.RoleAdmin, http.MethodPost, "/api/v1/contract-templates", gin.H{
		"name":          "ДП-грузчик",
		"contract_type": "norm-hour",
		"work_services": []string{"Погрузка"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	templateID := created["template"].(map[string]any)["id"].(string)
	companionID := created["companion"].(map[string]any)["id"].(string)

	w = s.do(t, model.RoleAdmin, http.MethodDelete, "/api/v1/contract-templates/"+templateID, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "has dependent act templates", body["reason"])
	assert.EqualValues(t, 1, body["dependent_count"])
	assert.Equal(t, []any{companionID}, body["dependent_ids"])
	assert.Equal(t, templateID, body["redirect_template_id"])

	w = s.do(t, model.RoleUser, http.MethodDelete, "/api/v1/act-templates/"+companionID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, model.RoleAdmin, http.MethodDelete, "/api/v1/act-templates/"+companionID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, model.RoleAdmin, http.MethodDelete, "/api/v1/contract-templates/"+templateID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, model.RoleAdmin, http.MethodGet, "/api/v1/contract-templates/"+templateID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreviewEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, model.RoleUser, http.MethodPost, "/api/v1/documents/preview", gin.H{
		"contract_type": "norm-hour",
		"lines":         []gin.H{{"name": "Смена", "quantity": "8", "unit_price": "12,40"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "99.20", body["total_amount"])
	assert.Equal(t, "час", body["unit_label"])
	assert.Equal(t, "девяносто девять рублей 20 копеек", body["amount_words"])

	w = s.do(t, model.RoleUser, http.MethodPost, "/api/v1/documents/preview", gin.H{
		"contract_type": "norm-hour",
		"lines":         []gin.H{{"name": "Смена", "quantity": "восемь", "unit_price": "1"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContractTypesAndAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "", http.MethodGet, "/api/v1/contract-types", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, model.RoleUser, http.MethodGet, "/api/v1/contract-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]any)
	require.Len(t, data, 3)
	labels := map[string]string{}
	for _, item := range data {
		m := item.(map[string]any)
		labels[m["code"].(string)] = m["unit_label"].(string)
	}
	assert.Equal(t, map[string]string{"operation": "опер.", "norm-hour": "час", "cost": "усл."}, labels)

	w = s.do(t, "", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBadIdentifiers(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, model.RoleUser, http.MethodGet, "/api/v1/acts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, model.RoleUser, http.MethodGet, "/api/v1/acts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, model.RoleManager, http.MethodDelete, fmt.Sprintf("/api/v1/contract-templates/%s/work-services/0", uuid.NewString()), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleErrorMapping(t *testing.T) {
	h := &Handler{log: zerolog.Nop()}
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{apperr.Validation("bad"), http.StatusBadRequest, "validation failed: bad"},
		{apperr.ErrPermissionDenied, http.StatusForbidden, "permission denied"},
		{fmt.Errorf("%w: act", apperr.ErrNotFound), http.StatusNotFound, "not found: act"},
		{&apperr.ConflictError{Reason: "taken"}, http.StatusConflict, "conflict: taken"},
		{fmt.Errorf("%w: scope x", apperr.ErrRetryExhausted), http.StatusServiceUnavailable, "please retry"},
		{apperr.Configuration("no such type"), http.StatusInternalServerError, "internal error"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			h.handleError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, decode(t, w)["error"])
		})
	}
}
