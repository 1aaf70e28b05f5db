package handler

// --- Request / Response types ---

type createListingRequest struct {
	Brand       string `json:"brand"       validate:"required"`
	Model       string `json:"model"       validate:"required"`
	Condition   string `json:"condition"   validate:"required,oneof=new like_new good fair"`
	PricePKR    int64  `json:"price_pkr"   validate:"required,gt=0"`
	Description string `json:"description"`
}

type updateListingRequest struct {
	PricePKR    *int64  `json:"price_pkr,omitempty"   validate:"omitempty,gt=0"`
	Description *string `json:"description,omitempty"`
	Condition   *string `json:"condition,omitempty"   validate:"omitempty,oneof=new like_new good fair"`
}

type listListingsQuery struct {
	Brand     string `query:"brand"`
	Condition string `query:"condition"`
	MinPrice  int64  `query:"min_price"`
	MaxPrice  int64  `query:"max_price"`
	Search    string `query:"search"`
	Seller    string `query:"seller"`
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
}

type listListingsResponse struct {
	Items      any   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}
