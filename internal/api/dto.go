package api

import (
	"github.com/starford/wanikanji/internal/catalog"
	"github.com/starford/wanikanji/internal/ledger"
	"github.com/starford/wanikanji/internal/snapshot"
)

// SnapshotListResponse wraps the snapshot listing.
type SnapshotListResponse struct {
	Snapshots []snapshot.Meta `json:"snapshots"`
}

// HistoryResponse wraps recent install outcomes.
type HistoryResponse struct {
	Installs []ledger.Entry `json:"installs"`
}

// StatusResponse wraps the per-variant status report.
type StatusResponse struct {
	Variants []catalog.VariantStatus `json:"variants"`
}
