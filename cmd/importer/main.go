package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/importer"
	"storefront/internal/repository/product"
)

func main() {
	var (
		filePath string
		category string
		limit    int
	)
	flag.StringVar(&filePath, "file", "", "Path to catalog product CSV")
	flag.StringVar(&category, "category", "all", "Only import products in this category")
	flag.IntVar(&limit, "limit", importer.DefaultLimit, fmt.Sprintf("Maximum products to import (1-%d)", importer.MaxLimit))
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp, err := importer.NewCSVImporter(f, product.NewPostgres(pool, nil), importer.Options{
		CategoryID: category,
		Limit:      limit,
	})
	if err != nil {
		log.Fatalf("importer: %v", err)
	}

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d products (%d skipped) in %s\n", res.Imported, res.Skipped, time.Since(start).Truncate(time.Millisecond))
}
