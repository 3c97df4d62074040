package handlers

import (
	"scamshield/internal/domain/services/community"
	"scamshield/internal/domain/services/scan"
	"scamshield/internal/streaming"
	"scamshield/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health     *HealthHandler
	Scans      *ScanHandler
	Community  *CommunityHandler
	Reputation *ReputationHandler
	Blacklist  *BlacklistHandler
	Streaming  *StreamingHandler
}

// Dependencies holds dependencies for handlers. Checks, WSHub and
// EventBus are optional.
type Dependencies struct {
	Scans     *scan.Service
	Workflow  *community.Workflow
	Ledger    *community.Ledger
	Blacklist *community.BlacklistService
	Checks    map[string]Checker
	WSHub     *streaming.WebSocketHub
	EventBus  *streaming.EventBus
	Version   string
	Logger    *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(deps.Checks, deps.Version, deps.Logger),
		Scans:      NewScanHandler(deps.Scans, deps.Logger),
		Community:  NewCommunityHandler(deps.Workflow, deps.Logger),
		Reputation: NewReputationHandler(deps.Ledger, deps.Logger),
		Blacklist:  NewBlacklistHandler(deps.Blacklist, deps.Logger),
		Streaming:  NewStreamingHandler(deps.WSHub, deps.EventBus, deps.Logger),
	}
}
