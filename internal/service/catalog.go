package service

import (
	"context"
	"errors"

	"github.com/saadjs/healthsync/internal/model"
)

// Catalogs consults each catalog in order and returns the first match.
type Catalogs []Catalog

func (cs Catalogs) LookupBarcode(ctx context.Context, barcode string) (model.ProductInfo, error) {
	if len(cs) == 0 {
		return model.ProductInfo{}, errors.New("no fallback catalog configured")
	}
	errs := make([]error, 0, len(cs))
	for _, c := range cs {
		p, err := c.LookupBarcode(ctx, barcode)
		if err == nil {
			return p, nil
		}
		if ctx.Err() != nil {
			return model.ProductInfo{}, ctx.Err()
		}
		errs = append(errs, err)
	}
	return model.ProductInfo{}, errors.Join(errs...)
}
