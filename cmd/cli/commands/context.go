package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/guard-roster/internal/config"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg    *config.Config
	Env    string
	Logger *zap.Logger
	Ctx    context.Context
}
