package gateway

import (
	"errors"

	"github.com/custodia-labs/assetrag/internal/core/ports/driving"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("gateway: query service is required")

// Ports aggregates the driving ports served by the gateway.
type Ports struct {
	Index    driving.IndexService
	Query    driving.QueryService
	Sessions driving.SessionService
	Admin    driving.AdminService
}

// Validate ensures all required ports are set.
// Routes backed by an optional nil port answer 503.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
