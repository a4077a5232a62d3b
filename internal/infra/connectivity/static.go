// Package connectivity answers whether the remote news source is reachable.
package connectivity

import (
	"context"

	"newsreader/internal/domain/entity"
)

// Static reports a fixed status. It backs `connectivity.mode: online|offline`.
type Static entity.ConnectivityStatus

// CurrentStatus implements news.ConnectivityOracle.
func (s Static) CurrentStatus(context.Context) entity.ConnectivityStatus {
	return entity.ConnectivityStatus(s)
}
