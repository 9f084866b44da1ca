package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"smartguard/internal/config"
	"smartguard/internal/database"
	"smartguard/internal/handler"
	"smartguard/internal/hub"
	"smartguard/internal/monitor"
	"smartguard/internal/notify"
	"smartguard/internal/server"
)

func main() {
	log.Println("Starting SmartGuard Monitoring Service...")
	cfg := config.LoadConfig()
	setupLogging(cfg.LogToConsole)
	logConfiguration(cfg)

	repo, err := database.NewRepository(cfg.DBPath, cfg.HistoryCap)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repo.Close()

	history := database.NewHistoryStore(repo, cfg.HistoryCap)

	broadcastHub := hub.NewHub()
	session := monitor.NewMonitoringSession(
		monitor.NewThresholdStore(),
		monitor.NewEvaluator(),
		broadcastHub,
	)

	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	dispatcher := notify.NewDispatcher(
		notify.NewMemoryRegistry(),
		notify.NewExpoPusher(cfg.PushEndpoint),
		mailer,
	)

	srv := server.NewServer(cfg.HTTPAddr, session, broadcastHub, history, dispatcher, mailer)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, closing...")
		cancel()
	}()

	var wg sync.WaitGroup

	if cfg.MQTTEnabled {
		mqttClient, err := handler.InitializeMQTT(cfg, session)
		if err != nil {
			log.Fatalf("Failed to initialize MQTT client: %v", err)
		}
		defer mqttClient.Disconnect(250)

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			log.Println("Shutting down MQTT client...")
		}()
	}

	if cfg.KafkaEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.RunKafkaConsumer(ctx, cfg, session)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(ctx); err != nil {
			log.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	log.Println("Service started successfully. Waiting for telemetry...")
	wg.Wait()
	log.Println("All services closed. Exiting.")
}

func setupLogging(logToConsole bool) {
	logFile := &lumberjack.Logger{
		Filename:   "./logs/smartguard.log",
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	if logToConsole {
		mw := io.MultiWriter(os.Stdout, logFile)
		log.SetOutput(mw)
	} else {
		log.SetOutput(logFile)
	}
}

func logConfiguration(cfg *config.Config) {
	log.Println("--- Service Configuration ---")
	log.Printf("HTTP Addr: %s", cfg.HTTPAddr)
	log.Printf("DB Path: %s", cfg.DBPath)
	log.Printf("History Cap: %d", cfg.HistoryCap)
	log.Printf("Push Endpoint: %s", cfg.PushEndpoint)
	log.Printf("SMTP Host: %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	log.Printf("MQTT Enabled: %v (broker %s)", cfg.MQTTEnabled, cfg.MQTTBroker)
	log.Printf("Kafka Enabled: %v (brokers %s)", cfg.KafkaEnabled, cfg.KafkaBrokers)

	if cfg.SMTPPass != "" {
		log.Println("SMTP Password: [SET]")
	} else {
		log.Println("SMTP Password: [NOT SET]")
	}

	if cfg.MQTTPassword != "" {
		log.Println("MQTT Password: [SET]")
	} else {
		log.Println("MQTT Password: [NOT SET]")
	}
	log.Println("---------------------------")
}
