package main

import (
	"flag"
	"os"
	"path/filepath"

	"bountychain/config"
	"bountychain/core"
	"bountychain/crypto"
	"bountychain/native/bounty"
	"bountychain/observability/logging"
	"bountychain/rpc"
	"bountychain/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the node configuration file")
	flag.Parse()

	logger := logging.Setup("bountyd", os.Getenv("BOUNTY_ENV"))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	minAmount, err := cfg.MinBountyAmountInt()
	if err != nil {
		logger.Error("invalid MinBountyAmount", "error", err)
		os.Exit(1)
	}
	rent, err := cfg.BountyRentInt()
	if err != nil {
		logger.Error("invalid BountyRent", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "bountychain"))
	if err != nil {
		logger.Error("failed to open database", "dataDir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	policy := bounty.OverrideGuarded
	if cfg.OverrideUnguarded() {
		policy = bounty.OverrideUnguarded
	}

	node := core.NewNode(db, core.Options{
		MinBountyAmount: minAmount,
		BountyRent:      rent,
		OverridePolicy:  policy,
	})

	if admin := cfg.GenesisAdmin; admin != "" {
		addr, err := crypto.DecodeAddress(admin)
		if err != nil {
			logger.Error("invalid GenesisAdmin address", "error", err)
			os.Exit(1)
		}
		if err := node.RegistryInitialize(addr.Raw()); err != nil {
			// Already initialized is expected on restart.
			logger.Info("registry bootstrap skipped", "reason", err)
		} else {
			logger.Info("registry initialized", "admin", admin)
		}
	}

	logger.Info("node ready",
		"network", cfg.NetworkName,
		"minBountyAmount", minAmount.String(),
		"bountyRent", rent.String(),
		"overridePolicy", cfg.OverridePolicy,
	)

	server := rpc.NewServer(node, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", "error", err)
		os.Exit(1)
	}
}
