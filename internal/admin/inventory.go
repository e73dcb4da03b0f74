package admin

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const (
	lowStockThreshold = 10
	outOfSyncAfter    = 5 * time.Minute
	recentSyncWithin  = 30 * time.Minute
)

// estimatedUnitValue prices every available unit for the dashboard total.
var estimatedUnitValue = decimal.NewFromInt(25)

type StockStatus string

const (
	InStock    StockStatus = "in-stock"
	LowStock   StockStatus = "low-stock"
	OutOfStock StockStatus = "out-of-stock"
)

type SyncState string

const (
	SyncLive   SyncState = "live"
	SyncRecent SyncState = "recent"
	SyncStale  SyncState = "stale"
)

func TotalQuantity(item domain.InventoryItem) int {
	total := 0
	for _, ch := range item.Channels {
		total += ch.Quantity
	}
	return total
}

func TotalAvailable(item domain.InventoryItem) int {
	total := 0
	for _, ch := range item.Channels {
		total += ch.Available
	}
	return total
}

// Status classifies an item by units available across all channels.
func Status(item domain.InventoryItem) StockStatus {
	switch available := TotalAvailable(item); {
	case available == 0:
		return OutOfStock
	case available <= lowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// InventoryFilter selects dashboard rows. Empty fields and "all" match
// everything. Status "in-stock" matches any item with units available,
// low-stock ones included.
type InventoryFilter struct {
	Search  string
	Status  string
	Channel string
}

func Filter(items []domain.InventoryItem, f InventoryFilter) []domain.InventoryItem {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		if search != "" &&
			!strings.Contains(strings.ToLower(item.ProductName), search) &&
			!strings.Contains(strings.ToLower(item.SKU), search) {
			continue
		}
		if !matchesStatus(item, f.Status) {
			continue
		}
		if f.Channel != "" && f.Channel != "all" {
			if _, ok := item.Channels[f.Channel]; !ok {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func matchesStatus(item domain.InventoryItem, status string) bool {
	available := TotalAvailable(item)
	switch StockStatus(status) {
	case "", "all":
		return true
	case InStock:
		return available > 0
	case OutOfStock:
		return available == 0
	case LowStock:
		return available > 0 && available <= lowStockThreshold
	default:
		return false
	}
}

type InventorySummary struct {
	TotalProducts  int          `json:"totalProducts"`
	InStock        int          `json:"inStock"`
	OutOfStock     int          `json:"outOfStock"`
	LowStock       int          `json:"lowStock"`
	EstimatedValue domain.Money `json:"estimatedValue"`
}

func Summarize(items []domain.InventoryItem) InventorySummary {
	s := InventorySummary{TotalProducts: len(items)}
	value := decimal.Zero
	for _, item := range items {
		available := TotalAvailable(item)
		switch {
		case available == 0:
			s.OutOfStock++
		case available <= lowStockThreshold:
			s.InStock++
			s.LowStock++
		default:
			s.InStock++
		}
		value = value.Add(estimatedUnitValue.Mul(decimal.NewFromInt(int64(available))))
	}
	s.EstimatedValue = domain.NewMoney(value)
	return s
}

// SyncStatus buckets the age of a channel's last sync.
func SyncStatus(lastSync, now time.Time) SyncState {
	age := now.Sub(lastSync)
	switch {
	case age < outOfSyncAfter:
		return SyncLive
	case age < recentSyncWithin:
		return SyncRecent
	default:
		return SyncStale
	}
}

func OutOfSync(ch domain.ChannelStock, now time.Time) bool {
	return now.Sub(ch.LastSync) > outOfSyncAfter
}

type ChannelRow struct {
	domain.ChannelStock
	Sync      SyncState `json:"sync"`
	OutOfSync bool      `json:"outOfSync"`
}

// InventoryRow is an inventory item with its derived dashboard columns.
type InventoryRow struct {
	ID             int64                 `json:"id"`
	SKU            string                `json:"sku"`
	ProductName    string                `json:"productName"`
	Channels       map[string]ChannelRow `json:"channels"`
	TotalQuantity  int                   `json:"totalQuantity"`
	TotalAvailable int                   `json:"totalAvailable"`
	Status         StockStatus           `json:"status"`
}

func Rows(items []domain.InventoryItem, now time.Time) []InventoryRow {
	rows := make([]InventoryRow, 0, len(items))
	for _, item := range items {
		channels := make(map[string]ChannelRow, len(item.Channels))
		for name, ch := range item.Channels {
			channels[name] = ChannelRow{
				ChannelStock: ch,
				Sync:         SyncStatus(ch.LastSync, now),
				OutOfSync:    OutOfSync(ch, now),
			}
		}
		rows = append(rows, InventoryRow{
			ID:             item.ID,
			SKU:            item.SKU,
			ProductName:    item.ProductName,
			Channels:       channels,
			TotalQuantity:  TotalQuantity(item),
			TotalAvailable: TotalAvailable(item),
			Status:         Status(item),
		})
	}
	return rows
}

// Channels lists the channel names present in items, sorted.
func Channels(items []domain.InventoryItem) []string {
	seen := map[string]struct{}{}
	for _, item := range items {
		for name := range item.Channels {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
