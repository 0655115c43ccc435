package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"voicerelay/internal/api"
	"voicerelay/internal/config"
	"voicerelay/internal/service/dispatch"
	"voicerelay/internal/service/intent"
	"voicerelay/internal/service/speech"
	"voicerelay/internal/service/upload"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("VOICERELAY_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store, err := upload.NewStore(cfg.BasicConfig.UploadDir)
	if err != nil {
		log.Fatalf("init upload store: %v", err)
	}
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	store.StartSweeper(sweepCtx,
		time.Duration(cfg.BasicConfig.SweepIntervalMinutes)*time.Minute,
		time.Duration(cfg.BasicConfig.SweepMaxAgeMinutes)*time.Minute)

	speechClient := speech.NewClient(cfg.Speech)

	classifier, err := intent.NewClassifier(context.Background(), cfg.Intent)
	if err != nil {
		log.Fatalf("init intent classifier: %v", err)
	}

	var dispatcher dispatch.Dispatcher
	if cfg.Workflow.WebhookURL == "" {
		log.Printf("webhook url not configured, using mock execution")
		dispatcher = dispatch.NewMock()
	} else {
		dispatcher = dispatch.NewWebhook(cfg.Workflow.WebhookURL,
			time.Duration(cfg.Workflow.TimeoutSeconds)*time.Second)
	}

	handlers := api.NewHandler(store, speechClient, classifier, dispatcher, speechClient)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	log.Printf("server listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
