package models

// Requests for the regime HTTP endpoints. Defined in domain for reuse by the CLI.

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"omitempty,max=32"`
	Period string `query:"period" json:"period" default:"7d" validate:"required,max=8"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=5000"`
}

type CyclesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"omitempty,max=32"`
	Period string `query:"period" json:"period" default:"7d" validate:"required,max=8"`
}

type SummaryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"omitempty,max=32"`
	Period string `query:"period" json:"period" default:"7d" validate:"required,max=8"`
}
