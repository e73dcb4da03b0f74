package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"storefront/internal/backend"
	"storefront/internal/cartfacade"
	"storefront/internal/cartstore"
	"storefront/internal/cartsync"
	"storefront/internal/config"
	"storefront/internal/domain"
)

const usage = `usage: cartctl <command> [flags]

commands:
  show                                   print the local cart
  add -product ID -variant ID [-qty N]   add a catalog variant
  update -product ID -variant ID -qty N  set a line quantity (0 removes)
  remove -product ID -variant ID         remove a line
  clear                                  empty the cart
  count                                  print the number of units
  pull                                   print the server copy of the cart
`

type catalog interface {
	Product(ctx context.Context, id int64) (*domain.Product, error)
}

type puller interface {
	Pull(ctx context.Context, id string) *domain.Cart
}

type app struct {
	facade  *cartfacade.Facade
	catalog catalog
	remote  puller
	out     io.Writer
}

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[cartctl] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	gateway := cartsync.New(cfg.StorefrontURL,
		cartsync.WithTimeout(cfg.BackendTimeout),
		cartsync.WithObserver(cartsync.LogObserver{Logger: logger}),
	)
	store := cartstore.New(cartstore.NewFileStorage(cfg.ProfileDir), gateway, cartstore.WithLogger(logger))
	a := &app{
		facade:  cartfacade.New(store),
		catalog: backend.New(cfg.BackendURL, backend.WithTimeout(cfg.BackendTimeout)),
		remote:  gateway,
		out:     os.Stdout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	err := a.run(ctx, os.Args[1], os.Args[2:])
	cancel()
	gateway.Close()

	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("%s: %v", os.Args[1], err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	a.facade.Mount()
	select {
	case <-a.facade.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(a.out)
	productID := fs.Int64("product", 0, "product id")
	variantID := fs.Int64("variant", 0, "variant id")
	qty := fs.Int("qty", 1, "quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}

	needLine := func() error {
		if *productID <= 0 || *variantID <= 0 {
			return errors.New("-product and -variant are required")
		}
		return nil
	}

	switch command {
	case "show":
		cart, _ := a.facade.Cart()
		return a.print(cart)
	case "count":
		_, err := fmt.Fprintln(a.out, a.facade.ItemCount())
		return err
	case "add":
		if err := needLine(); err != nil {
			return err
		}
		product, err := a.catalog.Product(ctx, *productID)
		if err != nil {
			return fmt.Errorf("load product %d: %w", *productID, err)
		}
		variant, ok := product.Variant(*variantID)
		if !ok {
			return fmt.Errorf("product %d has no variant %d: %w", *productID, *variantID, domain.ErrNotFound)
		}
		cart, err := a.facade.AddToCart(*product, variant, *qty)
		if err != nil {
			return err
		}
		return a.print(cart)
	case "update":
		if err := needLine(); err != nil {
			return err
		}
		cart, err := a.facade.UpdateCartItem(*productID, *variantID, *qty)
		if err != nil {
			return err
		}
		return a.print(cart)
	case "remove":
		if err := needLine(); err != nil {
			return err
		}
		cart, err := a.facade.RemoveFromCart(*productID, *variantID)
		if err != nil {
			return err
		}
		return a.print(cart)
	case "clear":
		cart, err := a.facade.ClearCart()
		if err != nil {
			return err
		}
		return a.print(cart)
	case "pull":
		local, _ := a.facade.Cart()
		remote := a.remote.Pull(ctx, local.ID)
		if remote == nil {
			return fmt.Errorf("cart %s: %w on server", local.ID, domain.ErrNotFound)
		}
		return a.print(*remote)
	default:
		fmt.Fprint(a.out, usage)
		return flag.ErrHelp
	}
}

func (a *app) print(cart domain.Cart) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(cart)
}
