package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"plantmonitor/internal/models"
	"plantmonitor/internal/repository"
)

// StatusProjector derives each asset's operational status from its active
// insights: maintenance iff at least one active out_of_range insight exists.
type StatusProjector struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (p *StatusProjector) Project(ctx context.Context, facilityID string) error {
	if p == nil || p.Repo == nil {
		return nil
	}
	assets, err := p.Repo.ListAssetsByFacility(ctx, facilityID)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	flaggedIDs, err := p.Repo.ListAssetIDsWithActiveOutOfRange(ctx, facilityID)
	if err != nil {
		return fmt.Errorf("list flagged assets: %w", err)
	}
	flagged := make(map[string]struct{}, len(flaggedIDs))
	for _, id := range flaggedIDs {
		flagged[id] = struct{}{}
	}

	for _, asset := range assets {
		status := models.AssetStatusOperational
		if _, ok := flagged[asset.ID]; ok {
			status = models.AssetStatusMaintenance
		}
		// The store guards with "status <> ?" so unchanged rows are untouched.
		changed, err := p.Repo.UpdateAssetStatus(ctx, asset.ID, status)
		if err != nil {
			return fmt.Errorf("update asset %s status: %w", asset.ID, err)
		}
		if changed && p.Logger != nil {
			p.Logger.Info("asset status changed",
				zap.String("asset_id", asset.ID),
				zap.String("asset", asset.Name),
				zap.String("status", status),
			)
		}
	}
	return nil
}
