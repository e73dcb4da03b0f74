package domain

import "time"

// ChannelStock is the stock level of one SKU on one sales channel.
type ChannelStock struct {
	Quantity  int       `json:"quantity"`
	Available int       `json:"available"`
	LastSync  time.Time `json:"lastSync"`
}

type InventoryItem struct {
	ID          int64                   `json:"id"`
	SKU         string                  `json:"sku"`
	ProductName string                  `json:"productName"`
	Channels    map[string]ChannelStock `json:"channels"`
}

type InventoryResponse struct {
	Success bool            `json:"success"`
	Items   []InventoryItem `json:"items"`
}
