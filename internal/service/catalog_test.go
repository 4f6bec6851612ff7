package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/healthsync/internal/model"
	"github.com/saadjs/healthsync/internal/service"
)

func TestCatalogsReturnsFirstMatch(t *testing.T) {
	t.Parallel()

	miss := stubCatalog{err: errors.New("not found")}
	hit := stubCatalog{product: model.ProductInfo{Name: "Oat Bar"}}
	other := stubCatalog{product: model.ProductInfo{Name: "Other"}}

	p, err := service.Catalogs{miss, hit, other}.LookupBarcode(context.Background(), "4006381333931")
	require.NoError(t, err)
	assert.Equal(t, "Oat Bar", p.Name)
}

func TestCatalogsJoinsFailures(t *testing.T) {
	t.Parallel()

	first := errors.New("first down")
	second := errors.New("second down")
	_, err := service.Catalogs{stubCatalog{err: first}, stubCatalog{err: second}}.LookupBarcode(context.Background(), "4006381333931")
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)

	_, err = service.Catalogs{}.LookupBarcode(context.Background(), "4006381333931")
	assert.Error(t, err)
}
