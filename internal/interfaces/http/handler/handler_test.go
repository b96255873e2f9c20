package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/application/integrity"
	ncrapp "github.com/returns/backend/internal/application/ncr"
	appreturns "github.com/returns/backend/internal/application/returns"
	domain "github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/infrastructure/auth"
	"github.com/returns/backend/internal/infrastructure/counter"
	"github.com/returns/backend/internal/infrastructure/store"
	"github.com/returns/backend/internal/interfaces/http/middleware"
	"github.com/returns/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

const testPin = "4321"

type fixture struct {
	engine  *gin.Engine
	returns *appreturns.Service
	ncr     *ncrapp.Service
	store   *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	st := store.NewMemoryStore()

	records := store.NewReturnRecordRepository(st, logger)
	orders := store.NewCollectionOrderRepository(st, logger)
	reports := store.NewNCRRepository(st, logger)
	numbers := counter.NewService(st, logger)
	authz := auth.NewPINAuthorizer(map[auth.Action]string{
		auth.ActionStepBack:     testPin,
		auth.ActionDeleteRecord: testPin,
		auth.ActionSweepOrphans: testPin,
		auth.ActionResetCounter: testPin,
		auth.ActionForceImport:  testPin,
	})

	recordCache, unsubRecords, err := appreturns.NewRecordCache(records, logger)
	require.NoError(t, err)
	t.Cleanup(unsubRecords)
	orderCache, unsubOrders, err := appreturns.NewOrderCache(orders, logger)
	require.NoError(t, err)
	t.Cleanup(unsubOrders)
	reportCache, unsubReports, err := ncrapp.NewReportCache(reports, logger)
	require.NoError(t, err)
	t.Cleanup(unsubReports)

	returnsSvc := appreturns.NewService(records, orders, store.NewDocumentIndex(st),
		numbers, authz, recordCache, orderCache, logger)
	ncrSvc := ncrapp.NewService(reports, records, numbers, reportCache, recordCache, logger)
	integritySvc := integrity.NewService(records, recordCache, reportCache, authz, logger)

	engine := gin.New()
	router.NewRouter(engine).
		Register(NewRecordHandler(returnsSvc)).
		Register(NewCollectionHandler(returnsSvc)).
		Register(NewNCRHandler(ncrSvc)).
		Register(NewImportHandler(returnsSvc, authz, ImportConfig{MaxRows: 100}, logger)).
		Register(NewIntegrityHandler(integritySvc)).
		Register(NewCounterHandler(numbers, authz)).
		Register(NewSystemHandler()).
		Setup()

	return &fixture{engine: engine, returns: returnsSvc, ncr: ncrSvc, store: st}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) doWithHeader(t *testing.T, method, path, header, value string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(header, value)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) seedRecord(t *testing.T, id, docNo, productCode string) domain.ReturnRecord {
	t.Helper()
	rec := domain.ReturnRecord{
		ID:           id,
		DocumentNo:   docNo,
		Branch:       "B",
		CustomerName: "C",
		ProductCode:  productCode,
		ProductName:  "Product " + productCode,
		Status:       domain.StatusDraft,
		Date:         "2026-08-01",
	}
	require.NoError(t, f.returns.CreateRecord(context.Background(), &rec))
	return rec
}

// decode unwraps the data field of a response envelope into out
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}
