package handler

// --- Request / Response types ---

type openConversationRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
}

type sendMessageRequest struct {
	Type          string `json:"type"            validate:"required,oneof=plain offer phone_share"`
	Content       string `json:"content"`
	OfferPricePKR int64  `json:"offer_price_pkr" validate:"omitempty,gt=0"`
	PhoneNumber   string `json:"phone_number"`
}

type respondToOfferRequest struct {
	Action          string `json:"action"            validate:"required,oneof=accept reject counter"`
	CounterPricePKR int64  `json:"counter_price_pkr" validate:"omitempty,gt=0"`
}

type listMessagesQuery struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

type listMessagesResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type offerResponse struct {
	Offer     any `json:"offer"`
	Companion any `json:"companion"`
}

type markReadResponse struct {
	MessageIDs []string `json:"message_ids"`
}
