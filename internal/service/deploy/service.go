package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gosimple/slug"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

const DefaultChannel = "shopify"

var ErrNoProducts = errors.New("at least one product id is required")

type productLoader interface {
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

type channelDeployer interface {
	Deploy(ctx context.Context, req backend.DeployRequest) (*backend.DeployResult, error)
}

type Request struct {
	Channel    string  `json:"channel"`
	ProductIDs []int64 `json:"productIds"`
}

type Service struct {
	products productLoader
	backend  channelDeployer
	logger   *log.Logger
}

func New(products productLoader, deployer channelDeployer, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{products: products, backend: deployer, logger: logger}
}

// Deploy pushes imported products to a sales channel. Ids that are not in the
// local catalog are reported as failures without being sent.
func (s *Service) Deploy(ctx context.Context, req Request) (*backend.DeployResult, error) {
	if len(req.ProductIDs) == 0 {
		return nil, ErrNoProducts
	}
	channel := strings.ToLower(strings.TrimSpace(req.Channel))
	if channel == "" {
		channel = DefaultChannel
	}

	products, err := s.products.GetByIDs(ctx, req.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	found := make(map[int64]struct{}, len(products))
	payload := backend.DeployRequest{Channel: channel}
	for _, p := range products {
		found[p.ID] = struct{}{}
		payload.ProductIDs = append(payload.ProductIDs, p.ID)
		payload.Products = append(payload.Products, ChannelProduct(p))
	}

	var missing []string
	for _, id := range req.ProductIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, fmt.Sprintf("product %d not found", id))
		}
	}

	res := &backend.DeployResult{}
	if len(payload.Products) > 0 {
		res, err = s.backend.Deploy(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("deploy to %s: %w", channel, err)
		}
	}
	res.Failed += len(missing)
	res.Errors = append(res.Errors, missing...)
	res.Success = res.Failed == 0
	s.logger.Printf("deploy channel=%s deployed=%d failed=%d", channel, res.Deployed, res.Failed)
	return res, nil
}

// ChannelProduct maps a catalog product to the channel listing shape.
func ChannelProduct(p domain.Product) backend.ChannelProduct {
	handle := p.Handle
	if handle == "" {
		handle = slug.Make(p.Name)
	}
	out := backend.ChannelProduct{
		ProductID:   p.ID,
		Handle:      handle,
		Title:       p.Name,
		Description: p.Description,
		Vendor:      p.Brand,
		ProductType: p.Category,
		Status:      p.Status,
		Variants:    make([]backend.ChannelVariant, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		price := v.Price
		if price == "" {
			price = p.BasePrice
		}
		out.Variants = append(out.Variants, backend.ChannelVariant{
			SKU:     v.SKU,
			Price:   price,
			Option1: v.Size,
			Option2: v.Color,
		})
	}
	return out
}
