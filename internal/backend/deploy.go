package backend

// ChannelVariant is a variant as a sales channel lists it.
type ChannelVariant struct {
	SKU     string `json:"sku"`
	Price   string `json:"price"`
	Option1 string `json:"option1,omitempty"`
	Option2 string `json:"option2,omitempty"`
}

type ChannelProduct struct {
	ProductID   int64            `json:"productId"`
	Handle      string           `json:"handle"`
	Title       string           `json:"title"`
	Description string           `json:"bodyHtml"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"productType"`
	Status      string           `json:"status"`
	Variants    []ChannelVariant `json:"variants"`
}

type DeployRequest struct {
	Channel    string           `json:"-"`
	ProductIDs []int64          `json:"productIds"`
	Products   []ChannelProduct `json:"products"`
}

type DeployResult struct {
	Success  bool     `json:"success"`
	Deployed int      `json:"deployed"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}
