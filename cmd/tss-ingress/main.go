package main

import (
	"log"
	"os"

	"tss/internal/config"
	"tss/internal/ingress"
	"tss/internal/logger"
	"tss/internal/queue"
)

func main() {
	cfgPath := os.Getenv("TSS_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	logger.SetLevel(cfg.App.LogLevel)

	publisher, err := queue.NewPublisher(cfg.Queue)
	if err != nil {
		log.Fatalf("connecting to queue failed: %v", err)
	}
	defer publisher.Close()

	server, err := ingress.NewServer(cfg.Ingress, publisher)
	if err != nil {
		log.Fatalf("initializing ingress failed: %v", err)
	}

	// Watch the config file so secret rotation takes effect without a
	// restart.
	if _, err := config.Watch(cfgPath, func(fresh *config.Config) {
		server.SetSecret(fresh.Ingress.Secret)
		logger.Infof("ingress secret reloaded")
	}); err != nil {
		logger.Warnf("config watch unavailable: %v", err)
	}

	logger.Infof("ingress listening on %s", cfg.Ingress.Addr)
	if err := server.Run(cfg.Ingress.Addr); err != nil {
		log.Fatalf("ingress exited: %v", err)
	}
}
