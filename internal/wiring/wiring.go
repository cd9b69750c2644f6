// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/subdiv/internal/adapters/backend"
	_ "go.trai.ch/subdiv/internal/adapters/cas"
	_ "go.trai.ch/subdiv/internal/adapters/config"
	_ "go.trai.ch/subdiv/internal/adapters/drawstage"
	_ "go.trai.ch/subdiv/internal/adapters/logger"
	_ "go.trai.ch/subdiv/internal/adapters/telemetry"
	_ "go.trai.ch/subdiv/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/subdiv/internal/app"
	_ "go.trai.ch/subdiv/internal/engine/refine"
)
