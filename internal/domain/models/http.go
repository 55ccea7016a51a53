package models

// Requests for market and forecast HTTP endpoints. Defined in domain for
// consistency and reuse.

type PriceRequest struct {
	Symbol string `query:"symbol" param:"symbol" json:"symbol" validate:"required"`
}

type HistoryRequest struct {
	Symbol      string `query:"symbol" param:"symbol" json:"symbol" validate:"required"`
	Granularity string `query:"granularity" json:"granularity" default:"hourly" validate:"oneof=hourly daily"`
	Limit       int    `query:"limit" json:"limit" default:"0" validate:"gte=0,lte=10000"`
}

type ForecastRequest struct {
	Symbol string `query:"symbol" param:"symbol" json:"symbol" validate:"required"`
	Steps  int    `query:"steps" json:"steps" default:"0" validate:"gte=0,lte=30"`
}

type ProbabilityRequest struct {
	Symbol string  `query:"symbol" param:"symbol" json:"symbol" validate:"required"`
	Target float64 `query:"target" json:"target" validate:"required,gt=0"`
	Steps  int     `query:"steps" json:"steps" default:"0" validate:"gte=0,lte=30"`
}

type TrackRequest struct {
	Symbol string `json:"symbol" validate:"required,min=1,max=12"`
}

type CreateAlertRequest struct {
	Symbol    string  `json:"symbol" validate:"required,min=1,max=12"`
	Threshold float64 `json:"threshold" validate:"required,gt=0"`
}

type ImportanceRequest struct {
	TopK int `query:"top_k" json:"top_k" default:"0" validate:"gte=0,lte=50"`
}

type BacktestRequest struct {
	ValSize int `query:"val_size" json:"val_size" default:"0" validate:"gte=0,lte=5000"`
}
