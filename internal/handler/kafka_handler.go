package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"smartguard/internal/config"
	"smartguard/internal/models"
	"smartguard/internal/monitor"
)

// RunKafkaConsumer consumes measurements from the telemetry topic and
// feeds them through the monitoring session until the context is done.
func RunKafkaConsumer(ctx context.Context, cfg *config.Config, session *monitor.MonitoringSession) {
	kafkaConfig := &kafka.ConfigMap{
		"bootstrap.servers": cfg.KafkaBrokers,
		"group.id":          cfg.ConsumerGroup,
		"auto.offset.reset": "latest",
	}

	consumer, err := kafka.NewConsumer(kafkaConfig)
	if err != nil {
		log.Fatalf("Failed to create consumer for topic %s: %v", cfg.KafkaTopic, err)
	}
	defer consumer.Close()

	if err := consumer.Subscribe(cfg.KafkaTopic, nil); err != nil {
		log.Fatalf("Failed to subscribe to topic %s: %v", cfg.KafkaTopic, err)
	}

	log.Printf("Consumer started for topic '%s' with group ID '%s'", cfg.KafkaTopic, cfg.ConsumerGroup)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Stopping consumer for topic: %s", cfg.KafkaTopic)
			return
		default:
			ev := consumer.Poll(100)
			if ev == nil {
				continue
			}
			switch e := ev.(type) {
			case *kafka.Message:
				var m models.Measurement
				if err := json.Unmarshal(e.Value, &m); err != nil {
					log.Printf("Error unmarshalling telemetry message: %v", err)
					continue
				}
				session.Ingest(m)
			case kafka.Error:
				fmt.Fprintf(os.Stderr, "%% Kafka Error: %v\n", e)
			}
		}
	}
}
