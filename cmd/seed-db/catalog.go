package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/bodega-pos/internal/domain/product"
	"github.com/xenking/bodega-pos/internal/domain/seller"
)

// productJSON is one catalog entry. Prices accept JSON numbers or strings.
type productJSON struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	Stock           decimal.Decimal `json:"stock"`
	Cost            decimal.Decimal `json:"cost"`
	PriceRetail     decimal.Decimal `json:"priceRetail"`
	PriceWholesale  decimal.Decimal `json:"priceWholesale"`
	WholesaleMinQty decimal.Decimal `json:"wholesaleMinQty"`
}

func (p productJSON) toProduct() product.Product {
	unit := strings.TrimSpace(p.Unit)
	if unit == "" {
		unit = "pza"
	}
	return product.Product{
		ID:              strings.TrimSpace(p.ID),
		Name:            strings.TrimSpace(p.Name),
		Unit:            unit,
		Stock:           p.Stock,
		Cost:            p.Cost,
		PriceRetail:     p.PriceRetail,
		PriceWholesale:  p.PriceWholesale,
		WholesaleMinQty: p.WholesaleMinQty,
	}
}

type sellerSeed struct {
	ID   string
	Name string
	Role seller.Role
	Key  string
}

func (s sellerSeed) toSeller(pepper []byte) seller.Seller {
	return seller.Seller{ID: s.ID, Name: s.Name, Role: s.Role, KeyHash: seller.HashKey(pepper, s.Key)}
}

// loadCatalogs reads all files concurrently. Products from later files
// replace earlier ones with the same ID.
func loadCatalogs(ctx context.Context, files []string) ([]product.Product, error) {
	parsed := make([][]product.Product, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range files {
		g.Go(func() error {
			products, err := readCatalog(ctx, name)
			if err != nil {
				return errors.Wrapf(err, "read %s", name)
			}
			parsed[i] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		out   []product.Product
		index = make(map[string]int)
	)
	for _, products := range parsed {
		for _, p := range products {
			if i, ok := index[p.ID]; ok {
				out[i] = p
				continue
			}
			index[p.ID] = len(out)
			out = append(out, p)
		}
	}
	return out, nil
}

func readCatalog(ctx context.Context, name string) ([]product.Product, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(name, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}
	return decodeCatalog(ctx, r)
}

func decodeCatalog(ctx context.Context, r io.Reader) ([]product.Product, error) {
	var entries []productJSON
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	products := make([]product.Product, 0, len(entries))
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := e.toProduct()
		if err := p.Validate(); err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		products = append(products, p)
	}
	return products, nil
}
