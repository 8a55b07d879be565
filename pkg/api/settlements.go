package api

type Settlement struct {
	Id          string `json:"id"`
	GroupId     string `json:"group_id"`
	PayerId     string `json:"payer_id"`
	PayeeId     string `json:"payee_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	CompletedAt int64  `json:"completed_at,omitempty"`
}

type CreateSettlementRequest struct {
	GroupId     string `json:"group_id"`
	PayerId     string `json:"payer_id"`
	PayeeId     string `json:"payee_id"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

type CreateSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type CompleteSettlementRequest struct {
	SettlementId string `json:"settlement_id"`
}

type CompleteSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type RejectSettlementRequest struct {
	SettlementId string `json:"settlement_id"`
}

type RejectSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupId string `json:"group_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
