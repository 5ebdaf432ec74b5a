package entities

import (
	"github.com/strataml/strata/pkg/utils/rfctime"
)

// Detail is the placement of one entity as the API reports it.
type Detail struct {
	EntityID     string          `json:"entityId"`
	EntityType   string          `json:"entityType"`
	Tier         string          `json:"tier"`
	Version      int64           `json:"version"`
	SizeBytes    int64           `json:"sizeBytes"`
	CreatedAt    rfctime.RFC3339 `json:"createdAt"`
	LastAccessAt rfctime.RFC3339 `json:"lastAccessAt"`
	UpdatedAt    rfctime.RFC3339 `json:"updatedAt"`
}

func (d *Detail) Equal(o *Detail) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	return d.EntityID == o.EntityID &&
		d.EntityType == o.EntityType &&
		d.Tier == o.Tier &&
		d.Version == o.Version &&
		d.SizeBytes == o.SizeBytes &&
		d.CreatedAt.Equal(&o.CreatedAt) &&
		d.LastAccessAt.Equal(&o.LastAccessAt) &&
		d.UpdatedAt.Equal(&o.UpdatedAt)
}
