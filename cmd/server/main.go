package main

import (
	"github.com/zabal/bonfires/internal/server"
	"github.com/zabal/bonfires/internal/util"
	"github.com/zabal/bonfires/pkg/logger"
	"github.com/zabal/bonfires/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "bonfires-proxy",
	})
	logger.Init(consoleLogger)

	server.Init()
}
