package main

import (
	"github.com/casherops/skladrelay/internal/app"
	"github.com/casherops/skladrelay/internal/infra/logger"
	"go.uber.org/zap"
)

func main() {
	if err := app.Run(); err != nil {
		logger.Log.Info("main: run app failed",
			zap.Error(err))
	}
}
