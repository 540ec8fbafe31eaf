// Package main implements a mock Nova Poshta address API for local development.
package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/thomas/kram-terminal-go/internal/novaposhta"
)

//go:embed testdata/*
var testdataFS embed.FS

// fixtures holds the address tree served by the mock.
type fixtures struct {
	areas      []novaposhta.Area
	cities     map[string][]novaposhta.City      // by area ref
	warehouses map[string][]novaposhta.Warehouse // by city ref
}

func loadFixtures() (*fixtures, error) {
	f := &fixtures{}
	if err := readJSON("testdata/areas.json", &f.areas); err != nil {
		return nil, err
	}
	if err := readJSON("testdata/cities.json", &f.cities); err != nil {
		return nil, err
	}
	if err := readJSON("testdata/warehouses.json", &f.warehouses); err != nil {
		return nil, err
	}
	return f, nil
}

func readJSON(name string, v interface{}) error {
	data, err := testdataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func main() {
	addr := getEnv("MOCKNP_ADDR", ":18081")
	delay, _ := strconv.Atoi(getEnv("MOCKNP_DELAY_MS", "0"))

	fx, err := loadFixtures()
	if err != nil {
		log.Fatalf("Failed to load fixtures: %v", err)
	}

	h := &handler{
		fixtures: fx,
		apiKey:   os.Getenv("MOCKNP_API_KEY"),
		maxDelay: time.Duration(delay) * time.Millisecond,
	}

	log.Printf("Mock Nova Poshta server listening on %s", addr)
	log.Printf("Loaded %d areas", len(fx.areas))
	if h.maxDelay > 0 {
		log.Printf("Responses delayed by up to %s", h.maxDelay)
	}
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

type apiRequest struct {
	APIKey           string            `json:"apiKey"`
	ModelName        string            `json:"modelName"`
	CalledMethod     string            `json:"calledMethod"`
	MethodProperties map[string]string `json:"methodProperties"`
}

type apiResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Errors     []string    `json:"errors"`
	Warnings   []string    `json:"warnings"`
	Info       interface{} `json:"info"`
	ErrorCodes []string    `json:"errorCodes"`
}

// handler answers every call on a single endpoint, like the real API.
type handler struct {
	fixtures *fixtures
	apiKey   string
	// maxDelay adds a random latency so responses can overtake each other.
	maxDelay time.Duration
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req apiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if h.maxDelay > 0 {
		select {
		case <-time.After(time.Duration(rand.Int63n(int64(h.maxDelay)))):
		case <-r.Context().Done():
			return
		}
	}

	log.Printf("%s.%s %v", req.ModelName, req.CalledMethod, req.MethodProperties)

	if h.apiKey != "" && req.APIKey != h.apiKey {
		writeFailure(w, "API key is invalid", "20000200068")
		return
	}
	if req.ModelName != novaposhta.ModelAddress {
		writeFailure(w, "Model not found", "20000100001")
		return
	}

	switch req.CalledMethod {
	case novaposhta.MethodGetAreas:
		writeData(w, h.fixtures.areas)
	case novaposhta.MethodGetCities:
		writeData(w, orEmpty(h.fixtures.cities[req.MethodProperties["AreaRef"]]))
	case novaposhta.MethodGetWarehouse:
		writeData(w, orEmpty(h.fixtures.warehouses[req.MethodProperties["CityRef"]]))
	default:
		writeFailure(w, "Method not found", "20000100003")
	}
}

func writeData[T any](w http.ResponseWriter, data []T) {
	writeJSON(w, apiResponse{
		Success:    true,
		Data:       data,
		Errors:     []string{},
		Warnings:   []string{},
		Info:       map[string]int{"totalCount": len(data)},
		ErrorCodes: []string{},
	})
}

func writeFailure(w http.ResponseWriter, msg, code string) {
	writeJSON(w, apiResponse{
		Success:    false,
		Data:       []interface{}{},
		Errors:     []string{msg},
		Warnings:   []string{},
		Info:       []interface{}{},
		ErrorCodes: []string{code},
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
