package handler

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"smartguard/internal/config"
	"smartguard/internal/models"
	"smartguard/internal/monitor"
)

// NewTelemetryHandler feeds measurements arriving over MQTT into the same
// ingestion path as POST /api/sensor.
func NewTelemetryHandler(session *monitor.MonitoringSession) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		var m models.Measurement
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("Error unmarshalling telemetry from topic %s: %v", msg.Topic(), err)
			return
		}
		session.Ingest(m)
	}
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
}

func InitializeMQTT(cfg *config.Config, session *monitor.MonitoringSession) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetUsername(cfg.MQTTUsername)
	opts.SetPassword(cfg.MQTTPassword)
	opts.SetDefaultPublishHandler(NewTelemetryHandler(session))
	opts.OnConnect = func(client mqtt.Client) {
		log.Println("Connected to MQTT broker")
		token := client.Subscribe(cfg.MQTTTopic, 1, nil)
		token.Wait()
		log.Printf("Subscribed to topic: %s", cfg.MQTTTopic)
	}
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return client, nil
}
