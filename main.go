package main

import (
	"log"

	"github.com/shaharia-lab/testerpub/cmd"
	"github.com/shaharia-lab/testerpub/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cmd.Execute(cfg)
}
