package polymarket

import "encoding/json"

// marketResponse is the CLOB market shape. Newer API versions carry a
// tokens array with real CLOB token ids; older ones only parallel
// outcomes/prices arrays. Both are kept and the parser prefers tokens.
type marketResponse struct {
	ID             string          `json:"id"`
	ConditionID    string          `json:"condition_id"`
	Question       string          `json:"question"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Tokens         []tokenResponse `json:"tokens"`
	Outcomes       []string        `json:"outcomes"`
	Prices         []json.Number   `json:"prices"`
	Volume         json.Number     `json:"volume"`
	Liquidity      json.Number     `json:"liquidity"`
	CreatedAt      string          `json:"created_at"`
	EndDate        string          `json:"end_date"`
	Active         bool            `json:"active"`
	Closed         bool            `json:"closed"`
	Resolved       bool            `json:"resolved"`
	WinningOutcome *int            `json:"winning_outcome"`
}

// tokenResponse is one outcome token inside a market response.
type tokenResponse struct {
	TokenID string      `json:"token_id"`
	Outcome string      `json:"outcome"`
	Price   json.Number `json:"price"`
	Winner  bool        `json:"winner"`
}

// marketsResponse is the paginated market listing envelope.
type marketsResponse struct {
	Data       []marketResponse `json:"data"`
	NextCursor string           `json:"next_cursor"`
}

// positionResponse is one user holding as reported by the positions API.
type positionResponse struct {
	MarketID     string      `json:"market_id"`
	TokenID      string      `json:"token_id"`
	OutcomeName  string      `json:"outcome_name"`
	Shares       json.Number `json:"shares"`
	AvgPrice     json.Number `json:"avg_price"`
	CurrentPrice json.Number `json:"current_price"`
}

// positionsResponse is the positions listing envelope.
type positionsResponse struct {
	Data []positionResponse `json:"data"`
}

// priceResponse is the single-token price shape.
type priceResponse struct {
	Price json.Number `json:"price"`
}

// streamEvent is one websocket market-channel event. Only price_change
// events carry a price.
type streamEvent struct {
	EventType string      `json:"event_type"`
	AssetID   string      `json:"asset_id"`
	Market    string      `json:"market"`
	Price     json.Number `json:"price"`
	Timestamp json.Number `json:"timestamp"`
}

// streamSubscription is the market-channel subscribe frame.
type streamSubscription struct {
	AssetIDs []string `json:"assets_ids"`
	Type     string   `json:"type"`
}
