package types

import "context"

// DataProvider is the injected market-data collaborator. Implementations are
// free to cache; the engine treats it as a black box and only distinguishes
// "unavailable" from "returned a frame".
type DataProvider interface {
	Fetch(ctx context.Context, symbol string, assetClass AssetClass, interval Interval, period Period) (*Frame, error)
}
