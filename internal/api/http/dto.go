package httpapi

type SectionDTO struct {
	Name     string `json:"name"`
	Elements []any  `json:"elements"`
}

type ProductDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Price is formatted for the product locale, Amount is the raw decimal.
	Price    string `json:"price"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Hosted   bool   `json:"hosted"`
}

type PurchaseDTO struct {
	TransactionID string `json:"transaction_id"`
	ProductID     string `json:"product_id"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	Restored      bool   `json:"restored"`
}

type DetailDTO struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ProductsResponse struct {
	Status   string       `json:"status"`
	Message  string       `json:"message,omitempty"`
	Sections []SectionDTO `json:"sections"`
}

type PurchasesResponse struct {
	Status           string       `json:"status"`
	Message          string       `json:"message,omitempty"`
	RestoreRequested bool         `json:"restore_requested"`
	Sections         []SectionDTO `json:"sections"`
}

type TransactionResponse struct {
	TransactionID string       `json:"transaction_id"`
	Title         string       `json:"title"`
	Sections      []SectionDTO `json:"sections"`
}

type PurchaseRequest struct {
	ProductID string `json:"product_id"`
}

type MessageDTO struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Status        string `json:"status,omitempty"`
	Text          string `json:"text"`
	ProductID     string `json:"product_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// GetMessagesParams are the query parameters of GET /messages.
type GetMessagesParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

type MessagesResponse struct {
	Messages []MessageDTO `json:"messages"`
}

type AcceptedResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
