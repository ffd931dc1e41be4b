package mcp

import (
	"context"

	"github.com/gregmcinnes/topset/internal/models"
	"github.com/gregmcinnes/topset/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both storage.Store
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	TrainingMaxHistory(ctx context.Context, lift string) ([]models.TrainingMax, error)
	LogHistory(ctx context.Context, lift string, limit int) ([]models.LogEntry, error)
	PersonalRecords(ctx context.Context) ([]models.PersonalRecord, error)
	LatestCycle(ctx context.Context) (*models.CompletedCycle, error)
}

// Compile-time check: every Store satisfies DataSource.
var _ DataSource = (storage.Store)(nil)
