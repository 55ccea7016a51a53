package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"
)

// MarketEchoHandler exposes the market data and forecast API over Echo.
type MarketEchoHandler struct {
	logger  *xlogger.Logger
	store   domrepo.SeriesStore
	poller  *usecase.LivePoller
	fc      *usecase.ForecastService
	trainer *usecase.Trainer
	alerts  *usecase.AlertService
	stream  *StreamHandler
}

func NewMarketEchoHandler(
	logger *xlogger.Logger,
	store domrepo.SeriesStore,
	poller *usecase.LivePoller,
	fc *usecase.ForecastService,
	trainer *usecase.Trainer,
	alerts *usecase.AlertService,
	stream *StreamHandler,
) *MarketEchoHandler {
	return &MarketEchoHandler{
		logger:  logger,
		store:   store,
		poller:  poller,
		fc:      fc,
		trainer: trainer,
		alerts:  alerts,
		stream:  stream,
	}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/price/:symbol", h.Price)
	g.GET("/history/:symbol", h.History)
	g.GET("/forecast/:symbol", h.Forecast)
	g.GET("/forecast/:symbol/cached", h.CachedForecast)
	g.GET("/probability/:symbol", h.Probability)
	g.GET("/importances", h.Importances)
	g.GET("/drift", h.Drift)
	g.GET("/alerts", h.Alerts)
	g.GET("/symbols", h.Symbols)
	g.POST("/symbols", h.Track)
	g.POST("/alerts", h.CreateAlert)
	g.POST("/train", h.Train)
	g.POST("/backtest", h.Backtest)
	g.GET("/stream", h.stream.Serve)
}

type priceResponse struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Volume        float64   `json:"volume"`
	ChangePercent *float64  `json:"change_percent,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func (h *MarketEchoHandler) Price(c echo.Context) error {
	req := &models.PriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	point, err := h.poller.Quote(ctx, req.Symbol)
	if err != nil {
		h.logger.Error("quote read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if point == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("no live price for %s", req.Symbol))
	}

	resp := priceResponse{
		Symbol:    point.Symbol,
		Price:     point.Price,
		Volume:    point.Volume,
		Timestamp: point.Timestamp,
	}
	if change, ok, err := h.store.GetChangePercent(ctx, req.Symbol); err == nil && ok {
		resp.ChangePercent = &change
	}
	return xhttp.SuccessResponse(c, resp)
}

type historyResponse struct {
	Symbol      string      `json:"symbol"`
	Granularity string      `json:"granularity"`
	Prices      []float64   `json:"prices"`
	Volumes     []float64   `json:"volumes"`
	Timestamps  []time.Time `json:"timestamps"`
}

func (h *MarketEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	series, err := h.store.GetHistory(c.Request().Context(), req.Symbol, models.Granularity(req.Granularity), req.Limit)
	if err != nil {
		h.logger.Error("history read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if series.Len() == 0 {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("no %s history for %s", req.Granularity, req.Symbol))
	}

	return xhttp.SuccessResponse(c, historyResponse{
		Symbol:      req.Symbol,
		Granularity: req.Granularity,
		Prices:      series.Prices,
		Volumes:     series.Volumes,
		Timestamps:  series.Timestamps,
	})
}

func (h *MarketEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	f, err := h.fc.Forecast(c.Request().Context(), req.Symbol, req.Steps)
	if err != nil {
		h.logger.Error("forecast error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if len(f.Prices) == 0 {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("model_not_ready", "", "model is not trained yet or history is too short", 503))
	}
	return xhttp.SuccessResponse(c, f)
}

func (h *MarketEchoHandler) CachedForecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	f, err := h.fc.CachedForecast(c.Request().Context(), req.Symbol)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if f == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("no stored forecast for %s", req.Symbol))
	}
	return xhttp.SuccessResponse(c, f)
}

type probabilityResponse struct {
	Symbol      string  `json:"symbol"`
	Target      float64 `json:"target"`
	Steps       int     `json:"steps"`
	Probability float64 `json:"probability"`
}

func (h *MarketEchoHandler) Probability(c echo.Context) error {
	req := &models.ProbabilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p, ok, err := h.fc.TargetProbability(c.Request().Context(), req.Symbol, req.Target, req.Steps)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if !ok {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("model_not_ready", "", "active model cannot estimate probabilities", 503))
	}
	return xhttp.SuccessResponse(c, probabilityResponse{
		Symbol:      req.Symbol,
		Target:      req.Target,
		Steps:       req.Steps,
		Probability: p,
	})
}

func (h *MarketEchoHandler) Importances(c echo.Context) error {
	req := &models.ImportanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	imp := h.fc.Importances(req.TopK)
	if len(imp) == 0 {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("model_not_ready", "", "no trained model to report importances", 503))
	}
	return xhttp.SuccessResponse(c, imp)
}

func (h *MarketEchoHandler) Drift(c echo.Context) error {
	d, err := h.trainer.Drift()
	if err != nil {
		h.logger.Error("drift check error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, d)
}

func (h *MarketEchoHandler) Alerts(c echo.Context) error {
	alerts, err := h.alerts.Alerts(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}

func (h *MarketEchoHandler) Symbols(c echo.Context) error {
	symbols, err := h.store.TrackedSymbols(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, symbols, int64(len(symbols)))
}

func (h *MarketEchoHandler) Track(c echo.Context) error {
	req := &models.TrackRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.store.TrackSymbol(c.Request().Context(), req.Symbol); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	h.logger.Info("symbol tracked", xlogger.String("symbol", req.Symbol))
	return xhttp.CreatedResponse(c, map[string]string{"symbol": req.Symbol})
}

func (h *MarketEchoHandler) CreateAlert(c echo.Context) error {
	req := &models.CreateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	h.alerts.SetThreshold(req.Symbol, req.Threshold)
	h.logger.Info("alert threshold set",
		xlogger.String("symbol", req.Symbol),
		xlogger.Float64("threshold", req.Threshold))
	return xhttp.CreatedResponse(c, map[string]interface{}{
		"symbol":    req.Symbol,
		"threshold": req.Threshold,
	})
}

// Train retrains synchronously; the registry lock makes concurrent calls
// queue rather than overlap.
func (h *MarketEchoHandler) Train(c echo.Context) error {
	if err := h.trainer.Retrain(c.Request().Context()); err != nil {
		h.logger.Error("train error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "trained"})
}

func (h *MarketEchoHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.trainer.Backtest(c.Request().Context(), req.ValSize)
	if err != nil {
		h.logger.Error("backtest error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res == nil {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("insufficient_data", "", "not enough rows for the validation split", 409))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) Health(c echo.Context) error {
	status := "ok"
	if err := h.store.Health(c.Request().Context()); err != nil {
		status = "degraded"
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": status})
}
