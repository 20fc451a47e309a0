package main

import (
	"github.com/kgviz/svc-kg/internal/server"
	"github.com/kgviz/svc-kg/internal/util"
	"github.com/kgviz/svc-kg/pkg/logger"
	"github.com/kgviz/svc-kg/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
