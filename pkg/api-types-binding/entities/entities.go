package entities

import (
	apientities "github.com/strataml/strata/pkg/api/types/entities"
	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/utils/rfctime"
)

func ComposeDetail(r domain.PlacementRecord) apientities.Detail {
	return apientities.Detail{
		EntityID:     r.EntityID,
		EntityType:   r.EntityType.String(),
		Tier:         r.Tier.String(),
		Version:      r.Version,
		SizeBytes:    r.SizeBytes,
		CreatedAt:    rfctime.RFC3339(r.CreatedAt),
		LastAccessAt: rfctime.RFC3339(r.LastAccessAt),
		UpdatedAt:    rfctime.RFC3339(r.UpdatedAt),
	}
}
