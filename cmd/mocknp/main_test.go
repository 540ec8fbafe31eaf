package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/thomas/kram-terminal-go/internal/novaposhta"
)

func newMock(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()
	fx, err := loadFixtures()
	if err != nil {
		t.Fatalf("loading fixtures: %v", err)
	}
	server := httptest.NewServer(&handler{fixtures: fx, apiKey: apiKey})
	t.Cleanup(server.Close)
	return server
}

func TestFixturesAreConsistent(t *testing.T) {
	fx, err := loadFixtures()
	if err != nil {
		t.Fatalf("loading fixtures: %v", err)
	}

	areas := make(map[string]bool)
	for _, a := range fx.areas {
		areas[a.Ref] = true
	}
	cities := make(map[string]bool)
	for areaRef, list := range fx.cities {
		if !areas[areaRef] {
			t.Errorf("cities keyed by unknown area %s", areaRef)
		}
		for _, c := range list {
			cities[c.Ref] = true
			if c.Area != areaRef {
				t.Errorf("city %s lists area %s, keyed under %s", c.Ref, c.Area, areaRef)
			}
		}
	}
	for cityRef := range fx.warehouses {
		if !cities[cityRef] {
			t.Errorf("warehouses keyed by unknown city %s", cityRef)
		}
	}
}

func TestMockServesCascade(t *testing.T) {
	server := newMock(t, "")
	client := novaposhta.NewClient(server.URL)
	ctx := context.Background()

	areas, err := client.GetAreas(ctx)
	if err != nil {
		t.Fatalf("GetAreas: %v", err)
	}
	if len(areas) != 4 {
		t.Fatalf("expected 4 areas, got %d", len(areas))
	}

	cities, err := client.GetCities(ctx, areas[0].Ref)
	if err != nil {
		t.Fatalf("GetCities: %v", err)
	}
	if len(cities) != 3 || cities[0].Description != "Київ" {
		t.Fatalf("unexpected cities: %+v", cities)
	}

	warehouses, err := client.GetWarehouses(ctx, cities[0].Ref)
	if err != nil {
		t.Fatalf("GetWarehouses: %v", err)
	}
	if len(warehouses) != 3 {
		t.Errorf("expected 3 warehouses, got %d", len(warehouses))
	}

	// An area without cities is an empty success, not an error.
	empty, err := client.GetCities(ctx, areas[3].Ref)
	if err != nil {
		t.Fatalf("GetCities: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no cities, got %d", len(empty))
	}
}

func TestMockRejectsWrongKey(t *testing.T) {
	server := newMock(t, "secret")

	_, err := novaposhta.NewClient(server.URL, novaposhta.WithAPIKey("nope")).GetAreas(context.Background())
	var apiErr novaposhta.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Method != novaposhta.MethodGetAreas {
		t.Errorf("expected method %s, got %s", novaposhta.MethodGetAreas, apiErr.Method)
	}

	if _, err := novaposhta.NewClient(server.URL, novaposhta.WithAPIKey("secret")).GetAreas(context.Background()); err != nil {
		t.Errorf("expected success with the right key, got %v", err)
	}
}
