// Файл: internal/routes/main_router_test.go
package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"order-dispatch/internal/controllers"
	"order-dispatch/internal/dto"
	"order-dispatch/internal/entities"
	"order-dispatch/internal/session"
	"order-dispatch/pkg/config"
	"order-dispatch/pkg/constants"
	"order-dispatch/pkg/customvalidator"
	apperrors "order-dispatch/pkg/errors"
	"order-dispatch/pkg/utils"
	"order-dispatch/pkg/websocket"
)

type routerFetcher struct {
	mu     sync.Mutex
	orders []entities.Order
}

func (f *routerFetcher) FetchOrders(ctx context.Context, _ constants.Role, _ sq.Sqlizer) ([]entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.Order(nil), f.orders...), nil
}

type routerOrderService struct {
	created  []dto.CreateOrderDTO
	findErr  error
	statErr  error
	takenErr error
}

func (s *routerOrderService) FindOrder(ctx context.Context, id string) (*entities.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return &entities.Order{ID: id, Status: constants.StatusNew}, nil
}

func (s *routerOrderService) CreateOrder(ctx context.Context, data dto.CreateOrderDTO) (*entities.Order, error) {
	s.created = append(s.created, data)
	return &entities.Order{ID: "o-1", Number: "0001", Type: constants.OrderType(data.Type), Status: constants.StatusNew}, nil
}

func (s *routerOrderService) UpdateStatus(ctx context.Context, id string, data dto.UpdateStatusDTO) (*entities.Order, error) {
	if s.statErr != nil {
		return nil, s.statErr
	}
	return &entities.Order{ID: id, Status: data.Value}, nil
}

func (s *routerOrderService) AcceptDelivery(ctx context.Context, id string, courierID string) (*entities.Order, error) {
	if s.takenErr != nil {
		return nil, s.takenErr
	}
	return &entities.Order{ID: id, CourierID: null.StringFrom(courierID)}, nil
}

// RouterTestSuite гоняет HTTP-маршруты поверх настоящего менеджера сессий
// с подменённым источником заказов.
type RouterTestSuite struct {
	suite.Suite
	Echo    *echo.Echo
	Manager *session.Manager
	Orders  *routerOrderService
	cancel  context.CancelFunc
}

func (suite *RouterTestSuite) SetupTest() {
	e := echo.New()
	v := validator.New()
	suite.Require().NoError(customvalidator.RegisterCustomValidations(v))
	e.Validator = utils.NewValidator(v)

	nopLogger := zap.NewNop()
	fetcher := &routerFetcher{orders: []entities.Order{{
		ID:      "o-1",
		Number:  "0042",
		Type:    constants.OrderTypeDineIn,
		Status:  constants.StatusNew,
		StatusA: null.StringFrom(constants.SubStatusNew),
		Total:   decimal.RequireFromString("12.50"),
		Items: []entities.LineItem{{
			Quantity: 2,
			Product:  entities.Product{Name: "Regina", Commerce: constants.CommerceA},
		}},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}}}

	hub := websocket.NewHub(nopLogger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	suite.cancel = cancel
	suite.Manager = session.NewManager(session.Dependencies{Fetcher: fetcher, Location: time.UTC, Logger: nopLogger})
	suite.Orders = &routerOrderService{}
	suite.Echo = e

	cfg := &config.Config{Dispatch: config.DispatchConfig{RefreshThrottle: time.Minute}}
	InitRouter(e, Services{
		Orders:   suite.Orders,
		Sessions: suite.Manager,
		Hub:      hub,
		Dedup:    controllers.NewRequestDeduplicator(),
	}, &Loggers{Main: nopLogger, Order: nopLogger, Session: nopLogger}, cfg)
}

func (suite *RouterTestSuite) TearDownTest() {
	suite.Manager.CloseAll()
	suite.cancel()
}

func (suite *RouterTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	suite.Echo.ServeHTTP(rec, req)
	return rec
}

type response struct {
	Status  bool            `json:"status"`
	Body    json.RawMessage `json:"body"`
	Message string          `json:"message"`
}

func (suite *RouterTestSuite) decode(rec *httptest.ResponseRecorder) response {
	var res response
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func (suite *RouterTestSuite) openSession(role, courierID string) string {
	rec := suite.do(http.MethodPost, "/api/sessions", dto.OpenSessionDTO{Role: role, CourierID: courierID})
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var opened dto.SessionOpenedDTO
	suite.Require().NoError(json.Unmarshal(suite.decode(rec).Body, &opened))
	suite.Equal("/ws/sessions/"+opened.ID, opened.WSPath)
	return opened.ID
}

func (suite *RouterTestSuite) TestHealthAndMetrics() {
	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/health", nil).Code)
	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/metrics", nil).Code)
}

func (suite *RouterTestSuite) TestOpenSessionValidation() {
	rec := suite.do(http.MethodPost, "/api/sessions", dto.OpenSessionDTO{Role: "manager"})
	suite.Equal(http.StatusBadRequest, rec.Code)

	rec = suite.do(http.MethodPost, "/api/sessions", dto.OpenSessionDTO{Role: "delivery"})
	suite.Equal(http.StatusBadRequest, rec.Code)

	id := suite.openSession("delivery", "courier-1")

	rec = suite.do(http.MethodGet, "/api/sessions", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var listed []dto.SessionOpenedDTO
	suite.Require().NoError(json.Unmarshal(suite.decode(rec).Body, &listed))
	suite.Require().Len(listed, 1)
	suite.Equal(id, listed[0].ID)
	suite.Equal("courier-1", listed[0].CourierID)
}

func (suite *RouterTestSuite) TestSessionSnapshot() {
	id := suite.openSession("kitchen_a", "")

	suite.Eventually(func() bool {
		var snap session.Snapshot
		rec := suite.do(http.MethodGet, "/api/sessions/"+id, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(suite.decode(rec).Body, &snap); err != nil {
			return false
		}
		return !snap.IsLoading && len(snap.Commandes) == 1 && snap.DebugInfo.NewOrdersCount == 1
	}, time.Second, 10*time.Millisecond)

	suite.Equal(http.StatusNotFound, suite.do(http.MethodGet, "/api/sessions/unknown", nil).Code)
}

func (suite *RouterTestSuite) TestRefreshIsThrottled() {
	id := suite.openSession("cashier", "")

	rec := suite.do(http.MethodPost, "/api/sessions/"+id+"/refresh", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Equal("Сессия обновлена", suite.decode(rec).Message)

	rec = suite.do(http.MethodPost, "/api/sessions/"+id+"/refresh", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Equal("Обновление уже выполнялось", suite.decode(rec).Message)
}

func (suite *RouterTestSuite) TestPauseResumeClose() {
	id := suite.openSession("kitchen_b", "")

	suite.Equal(http.StatusOK, suite.do(http.MethodPost, "/api/sessions/"+id+"/pause", nil).Code)
	suite.Equal(http.StatusOK, suite.do(http.MethodPost, "/api/sessions/"+id+"/resume", nil).Code)
	suite.Equal(http.StatusOK, suite.do(http.MethodDelete, "/api/sessions/"+id, nil).Code)
	suite.Equal(http.StatusNotFound, suite.do(http.MethodGet, "/api/sessions/"+id, nil).Code)
	suite.Equal(http.StatusNotFound, suite.do(http.MethodDelete, "/api/sessions/"+id, nil).Code)
}

func (suite *RouterTestSuite) TestExport() {
	id := suite.openSession("cashier", "")
	suite.Require().Equal(http.StatusOK, suite.do(http.MethodPost, "/api/sessions/"+id+"/refresh", nil).Code)

	rec := suite.do(http.MethodGet, "/api/sessions/"+id+"/export", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Header().Get(echo.HeaderContentType), "spreadsheetml")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	suite.Require().NoError(err)
	defer f.Close()

	rows, err := f.GetRows("Заказы")
	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)
	suite.Equal("Номер", rows[0][0])
	suite.Equal("0042", rows[1][0])
	suite.Equal("2 x Regina", rows[1][5])
	suite.Equal("12.50", rows[1][6])
}

func (suite *RouterTestSuite) TestOrders() {
	rec := suite.do(http.MethodPost, "/api/orders", map[string]interface{}{"type": "dine_in"})
	suite.Equal(http.StatusBadRequest, rec.Code)

	rec = suite.do(http.MethodPost, "/api/orders", dto.CreateOrderDTO{
		Type:  "takeaway",
		Items: []dto.CreateOrderItemDTO{{ProductID: "5f0c8e3a-8d4b-4a7e-9a55-0c3d2b1e6f10", Quantity: 1}},
	})
	suite.Equal(http.StatusCreated, rec.Code, rec.Body.String())
	suite.Len(suite.Orders.created, 1)

	suite.Orders.statErr = apperrors.ErrInvalidStatus
	rec = suite.do(http.MethodPatch, "/api/orders/o-1/status", dto.UpdateStatusDTO{Field: "status_a", Value: "ready"})
	suite.Equal(http.StatusBadRequest, rec.Code)

	rec = suite.do(http.MethodPatch, "/api/orders/o-1/status", dto.UpdateStatusDTO{Field: "notes", Value: "ready"})
	suite.Equal(http.StatusBadRequest, rec.Code)

	suite.Orders.takenErr = apperrors.ErrOrderAlreadyTaken
	rec = suite.do(http.MethodPost, "/api/orders/o-1/accept", dto.AcceptDeliveryDTO{CourierID: "courier-2"})
	suite.Equal(http.StatusConflict, rec.Code)

	suite.Orders.takenErr = apperrors.ErrOrderNotReady
	rec = suite.do(http.MethodPost, "/api/orders/o-1/accept", dto.AcceptDeliveryDTO{CourierID: "courier-2"})
	suite.Equal(http.StatusConflict, rec.Code)

	suite.Orders.findErr = apperrors.ErrNotFound
	suite.Equal(http.StatusNotFound, suite.do(http.MethodGet, "/api/orders/o-9", nil).Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
