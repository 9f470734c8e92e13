package domain

// Turn is one parsed unit of model output corresponding to one audio exchange.
// ResponseText is never empty: when extraction fails entirely the whole raw
// model text is carried here so the caller always has something to speak.
type Turn struct {
	Transcript   string         `json:"transcript,omitempty"`
	ResponseText string         `json:"response_text"`
	Data         map[string]any `json:"data,omitempty"`
	Command      string         `json:"command,omitempty"`
}

// CartLine is a single cart entry as accumulated by the model. Values are
// untrusted and unvalidated until order commit.
type CartLine struct {
	ProductID int     `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"price"`
}

// TurnResult is the transport-facing outcome of one processed turn.
type TurnResult struct {
	Transcript   string        `json:"transcript,omitempty"`
	ResponseText string        `json:"response_text"`
	Language     string        `json:"language"`
	Command      string        `json:"command,omitempty"`
	Order        *CommitResult `json:"order,omitempty"`
}
