// Synthetic telemetry producer. Generates plausible vitals with occasional
// fall and immobility scenarios and posts them to the ingestion endpoint
// once a second. The monitoring service evaluates independently; alarms
// asserted here are unioned in as producer-asserted kinds.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log"
	"math"
	"math/rand"
	"net/http"
	"time"

	"smartguard/internal/models"
)

type simulator struct {
	apiBase    string
	httpClient *http.Client

	ax, ay, az   float64
	lastMove     time.Time
	lastHR       int
	lastSpO2     int
	fallAt       time.Time
	falling      bool
	immobileAt   time.Time
	immobile     bool
}

func main() {
	apiBase := flag.String("api", "http://localhost:4000", "monitoring service base URL")
	interval := flag.Duration("interval", time.Second, "time between samples")
	flag.Parse()

	sim := &simulator{
		apiBase:    *apiBase,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		az:         1, // resting posture, 1g
		lastMove:   time.Now(),
		lastHR:     70,
		lastSpO2:   97,
	}

	log.Printf("Simulator sending to %s every %s", sim.apiBase, *interval)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for range ticker.C {
		if !sim.running() {
			continue
		}
		sim.step()
	}
}

// running polls the service's simulator switch; on error it keeps going.
func (s *simulator) running() bool {
	resp, err := s.httpClient.Get(s.apiBase + "/api/simulator/status")
	if err != nil {
		return true
	}
	defer resp.Body.Close()

	var status struct {
		Running bool `json:"running"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return true
	}
	return status.Running
}

func (s *simulator) thresholds() models.Thresholds {
	resp, err := s.httpClient.Get(s.apiBase + "/api/thresholds")
	if err != nil {
		return defaults()
	}
	defer resp.Body.Close()

	var th models.Thresholds
	if err := json.NewDecoder(resp.Body).Decode(&th); err != nil {
		return defaults()
	}
	return th
}

func defaults() models.Thresholds {
	return models.Thresholds{MinHR: 40, MaxHR: 120, MinSpO2: 92, ImmobileSec: 600, FallG: 2.0}
}

func (s *simulator) step() {
	th := s.thresholds()
	now := time.Now()
	var alarms []models.AlarmKind

	if !s.immobile && rand.Float64() < 0.01 {
		s.immobile = true
		s.immobileAt = now
		log.Println("IMMOBILITY SCENARIO STARTED")
	}
	if !s.falling && !s.immobile && rand.Float64() < 0.003 {
		s.ax = randomBetween(2.5, 4)
		s.ay = randomBetween(2.5, 4)
		s.az = randomBetween(2.5, 4)
		s.falling = true
		s.fallAt = now
		log.Println("FALL SCENARIO STARTED")
	}

	var heartRate int
	switch {
	case s.immobile:
		heartRate = s.lastHR + int(math.Round(randomBetween(-1, 1)))
	case s.falling && now.Sub(s.fallAt) < 8*time.Second:
		heartRate = int(math.Round(randomBetween(35, 42)))
	default:
		heartRate = int(math.Round(randomBetween(60, 90)))
		if rand.Float64() < 0.02 {
			heartRate = int(math.Round(randomBetween(30, 45)))
		}
		if rand.Float64() < 0.02 {
			heartRate = int(math.Round(randomBetween(130, 160)))
		}
	}
	if heartRate < th.MinHR {
		alarms = append(alarms, models.AlarmHRLow)
	}
	if heartRate > th.MaxHR {
		alarms = append(alarms, models.AlarmHRHigh)
	}

	var spo2 int
	switch {
	case s.immobile:
		spo2 = s.lastSpO2 + int(math.Round(randomBetween(-0.5, 0.5)))
	case s.falling && now.Sub(s.fallAt) < 8*time.Second:
		spo2 = int(math.Round(randomBetween(85, 90)))
	default:
		spo2 = int(math.Round(randomBetween(94, 99)))
		if rand.Float64() < 0.02 {
			spo2 = int(math.Round(randomBetween(80, 88)))
		}
	}
	if spo2 < th.MinSpO2 {
		alarms = append(alarms, models.AlarmSpO2Low)
	}

	switch {
	case s.falling && now.Sub(s.fallAt) < 8*time.Second:
		// Lying still after the impact.
		s.ax = randomBetween(-0.05, 0.05)
		s.ay = randomBetween(-0.05, 0.05)
		s.az = randomBetween(0, 0.2)
	case s.immobile && now.Sub(s.immobileAt) < 10*time.Second:
		s.ax = randomBetween(-0.03, 0.03)
		s.ay = randomBetween(-0.03, 0.03)
		s.az = randomBetween(0.95, 1.05)
	default:
		s.falling = false
		s.immobile = false
		s.ax = randomBetween(-0.2, 0.2)
		s.ay = randomBetween(-0.2, 0.2)
		s.az = randomBetween(0.8, 1.2)
		s.lastMove = now
	}

	totalG := math.Sqrt(s.ax*s.ax + s.ay*s.ay + s.az*s.az)
	if totalG > th.FallG {
		alarms = append(alarms, models.AlarmFall)
	}

	if absInt(heartRate-s.lastHR) > 2 || absInt(spo2-s.lastSpO2) > 1 || totalG > 0.3 {
		s.lastMove = now
	}
	s.lastHR = heartRate
	s.lastSpO2 = spo2

	immobileFor := now.Sub(s.lastMove).Seconds()
	if immobileFor > 5 {
		alarms = append(alarms, models.AlarmImmobile)
	}
	if heartRate < 45 && immobileFor > 3 {
		alarms = append(alarms, models.AlarmCriticalHR)
	}

	sysBP := int(math.Round(randomBetween(110, 130)))
	diaBP := int(math.Round(randomBetween(70, 85)))

	m := models.Measurement{
		Timestamp:   now.UnixMilli(),
		HeartRate:   &heartRate,
		SpO2:        &spo2,
		SystolicBP:  &sysBP,
		DiastolicBP: &diaBP,
		AX:          &s.ax,
		AY:          &s.ay,
		AZ:          &s.az,
		Alarms:      alarms,
	}
	s.post(m)
}

func (s *simulator) post(m models.Measurement) {
	payload, err := json.Marshal(m)
	if err != nil {
		log.Printf("Could not marshal measurement: %v", err)
		return
	}

	resp, err := s.httpClient.Post(s.apiBase+"/api/sensor", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("Could not send measurement: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("Ingestion returned status %s", resp.Status)
	}
}

func randomBetween(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
