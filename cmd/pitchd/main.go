package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pitch-pipeline/generation"
	"pitch-pipeline/internal/models"
	"pitch-pipeline/service"
	"pitch-pipeline/shared/config"
	"pitch-pipeline/shared/monitoring"
	"pitch-pipeline/shared/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := service.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}

	if len(os.Args) > 2 && os.Args[1] == "--once" {
		runOnce(ctx, svc, os.Args[2])
		return
	}

	healthServer := monitoring.NewHealthServer(svc.Monitor(), svc.HealthSnapshot,
		fmt.Sprintf("%d", cfg.Monitoring.HealthPort))
	healthServer.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /acquire", acquireHandler(svc))
	mux.HandleFunc("POST /pitch", pitchHandler(svc))
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort+1)
		log.Printf("API server starting on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	maintenance := scheduler.New(
		scheduler.Job{Name: "cache-cleanup", Schedule: cfg.Maintenance.CleanupSchedule, Run: svc.MaintenanceCleanup},
		scheduler.Job{Name: "quota-reset", Schedule: cfg.Maintenance.QuotaResetSchedule, Run: svc.MaintenanceQuotaReset},
	)

	log.Println("Starting maintenance scheduler...")
	if err := maintenance.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

// runOnce acquires one URL and prints the generated record, for smoke
// testing credentials and connectivity.
func runOnce(ctx context.Context, svc *service.Service, url string) {
	result := svc.Acquire(ctx, url, models.KindUnknown)
	log.Printf("Acquired %s via %s (confidence %.2f)", result.ID, result.StrategyUsed, result.Confidence)
	if result.Warning != "" {
		log.Printf("Warning: %s", result.Warning)
	}

	record, err := svc.GeneratePitch(ctx, result, generation.PromptParams{})
	if err != nil {
		log.Fatalf("Pitch generation failed: %v", err)
	}

	out, _ := json.MarshalIndent(record, "", "  ")
	fmt.Println(string(out))
}

type acquireRequest struct {
	URL  string `json:"url"`
	Hint string `json:"hint,omitempty"`
}

type pitchRequest struct {
	URL      string `json:"url"`
	Hint     string `json:"hint,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Audience string `json:"audience,omitempty"`
}

func acquireHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req acquireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		result := svc.Acquire(r.Context(), req.URL, models.ContentKind(req.Hint))
		writeJSON(w, result)
	}
}

func pitchHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pitchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		result := svc.Acquire(r.Context(), req.URL, models.ContentKind(req.Hint))
		record, err := svc.GeneratePitch(r.Context(), result, generation.PromptParams{
			Tone:     req.Tone,
			Audience: req.Audience,
		})
		if err != nil {
			http.Error(w, "pitch generation failed", http.StatusBadGateway)
			return
		}

		writeJSON(w, struct {
			Content *models.AcquisitionResult `json:"content"`
			Record  *models.StructuredRecord  `json:"record"`
		}{result, record})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
