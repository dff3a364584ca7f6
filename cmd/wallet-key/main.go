package main

import (
	"flag"
	"os"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/config"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/tools/walletkey"
)

func main() {
	cfg, err := walletkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := walletkey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate key: %v", err)
	}
}
