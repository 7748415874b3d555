package main

import (
	"os"

	"github.com/nightowlcasino/redblack/cmd"
	"go.uber.org/zap"
)

var (
	log *zap.Logger
)

func main() {

	if err := cmd.Execute(); err != nil {
		log = zap.L()
		log.Error("failed to execute redblack", zap.Error(err))
		os.Exit(1)
	}
}
