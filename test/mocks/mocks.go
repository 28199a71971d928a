// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `make mocks` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/quote.go -destination=quote_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/stock.go -destination=stock_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/catalog.go -destination=catalog_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_mock.go -package=mocks
