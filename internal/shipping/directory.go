// Package shipping adapts the Nova Poshta client to the address cascade.
package shipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/thomas/kram-terminal-go/internal/cache"
	"github.com/thomas/kram-terminal-go/internal/novaposhta"
	"github.com/thomas/kram-terminal-go/internal/shop"
)

// Source is the subset of the Nova Poshta client the directory needs.
type Source interface {
	GetAreas(ctx context.Context) ([]novaposhta.Area, error)
	GetCities(ctx context.Context, areaRef string) ([]novaposhta.City, error)
	GetWarehouses(ctx context.Context, cityRef string) ([]novaposhta.Warehouse, error)
}

// Key identifies one cached list.
type Key struct {
	Level  shop.Level
	Parent string
}

var _ shop.Directory = (*Directory)(nil)

// Directory serves address lists from a TTL cache shared by all sessions.
type Directory struct {
	src    Source
	cache  *cache.Cache[Key, []shop.AddressNode]
	logger *log.Logger
}

// NewDirectory creates a directory whose lists live for ttl.
func NewDirectory(src Source, ttl time.Duration, logger *log.Logger) *Directory {
	if logger == nil {
		logger = log.Default()
	}
	return &Directory{
		src:    src,
		cache:  cache.New[Key, []shop.AddressNode](ttl),
		logger: logger,
	}
}

// Areas implements shop.Directory.
func (d *Directory) Areas(ctx context.Context) ([]shop.AddressNode, error) {
	return d.load(ctx, Key{Level: shop.LevelArea}, func(ctx context.Context) ([]shop.AddressNode, error) {
		areas, err := d.src.GetAreas(ctx)
		if err != nil {
			return nil, err
		}
		nodes := make([]shop.AddressNode, 0, len(areas))
		for _, a := range areas {
			nodes = append(nodes, shop.AddressNode{Ref: a.Ref, Label: a.Description})
		}
		return nodes, nil
	})
}

// Cities implements shop.Directory.
func (d *Directory) Cities(ctx context.Context, areaRef string) ([]shop.AddressNode, error) {
	return d.load(ctx, Key{Level: shop.LevelCity, Parent: areaRef}, func(ctx context.Context) ([]shop.AddressNode, error) {
		cities, err := d.src.GetCities(ctx, areaRef)
		if err != nil {
			return nil, err
		}
		nodes := make([]shop.AddressNode, 0, len(cities))
		for _, c := range cities {
			nodes = append(nodes, shop.AddressNode{Ref: c.Ref, Label: c.Description})
		}
		return nodes, nil
	})
}

// Warehouses implements shop.Directory.
func (d *Directory) Warehouses(ctx context.Context, cityRef string) ([]shop.AddressNode, error) {
	return d.load(ctx, Key{Level: shop.LevelWarehouse, Parent: cityRef}, func(ctx context.Context) ([]shop.AddressNode, error) {
		warehouses, err := d.src.GetWarehouses(ctx, cityRef)
		if err != nil {
			return nil, err
		}
		nodes := make([]shop.AddressNode, 0, len(warehouses))
		for _, w := range warehouses {
			nodes = append(nodes, shop.AddressNode{Ref: w.Ref, Label: warehouseLabel(w)})
		}
		return nodes, nil
	})
}

// RunJanitor drops expired lists every interval until ctx is done.
func (d *Directory) RunJanitor(ctx context.Context, interval time.Duration) {
	d.cache.RunJanitor(ctx, interval)
}

// Stats exposes the cache counters.
func (d *Directory) Stats() cache.Stats {
	return d.cache.Stats()
}

func (d *Directory) load(ctx context.Context, key Key, fetch func(context.Context) ([]shop.AddressNode, error)) ([]shop.AddressNode, error) {
	start := time.Now()
	nodes, err := d.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]shop.AddressNode, error) {
		d.logger.Debug("fetching address list", "level", key.Level, "parent", key.Parent)
		return fetch(ctx)
	})
	if err != nil {
		d.logger.Warn("address lookup failed", "level", key.Level, "parent", key.Parent, "err", err)
		return nil, fmt.Errorf("looking up %s: %w", key.Level, err)
	}
	d.logger.Debug("address list ready", "level", key.Level, "count", len(nodes), "took", time.Since(start))
	return nodes, nil
}

// warehouseLabel falls back to the short address when the description is empty.
func warehouseLabel(w novaposhta.Warehouse) string {
	label := strings.TrimSpace(w.Description)
	if label == "" {
		label = strings.TrimSpace(w.ShortAddress)
	}
	return label
}
