package types

// Condition kinds an alert can watch for.
const (
	ConditionAbove   = "above"
	ConditionBelow   = "below"
	ConditionPercent = "percent"
)

type Alert struct {
	ID             string  `json:"id"`
	ChatID         int64   `json:"chat_id"`
	PairAddress    string  `json:"pair_address"`
	TokenName      string  `json:"token_name"`
	TokenSymbol    string  `json:"token_symbol"`
	Chain          string  `json:"chain"`
	Condition      string  `json:"condition"` // "above", "below" or "percent"
	Target         float64 `json:"target"`
	ReferencePrice float64 `json:"reference_price"` // price at creation time, baseline for percent alerts
	CreatedAt      string  `json:"created_at"`
}
