package routes

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/diskstore/internal/eviction"
	"github.com/any-hub/diskstore/internal/reaper"
)

// RegisterDiagnosticRoutes 暴露 /-/reapers 与 /-/strategies 诊断接口，供 SRE 查询各根目录的清理状态。
func RegisterDiagnosticRoutes(app *fiber.App, registry *reaper.Registry) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/reapers", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"reapers": encodeReapers(registry.List()),
		})
	})

	app.Get("/-/strategies", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"strategies": encodeStrategies(eviction.List()),
		})
	})
}

type reaperPayload struct {
	ID               string       `json:"id"`
	Path             string       `json:"path"`
	State            string       `json:"state"`
	CacheSize        int64        `json:"cache_size"`
	IntervalSeconds  float64      `json:"interval_seconds"`
	EvictionStrategy string       `json:"eviction_strategy"`
	CurrentSize      int64        `json:"current_size"`
	SizeError        string       `json:"size_error,omitempty"`
	Stats            statsPayload `json:"stats"`
}

type statsPayload struct {
	Sweeps             int64      `json:"sweeps"`
	FilesRemoved       int64      `json:"files_removed"`
	BytesFreed         int64      `json:"bytes_freed"`
	DirectoriesRemoved int64      `json:"directories_removed"`
	Failures           int64      `json:"failures"`
	LastSweep          *time.Time `json:"last_sweep,omitempty"`
}

type strategyPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func encodeReapers(reapers []*reaper.Reaper) []reaperPayload {
	result := make([]reaperPayload, 0, len(reapers))
	for _, r := range reapers {
		opts := r.Options()
		stats := r.Stats()
		item := reaperPayload{
			ID:               r.ID(),
			Path:             r.Path(),
			State:            r.State().String(),
			CacheSize:        opts.CacheSize,
			IntervalSeconds:  opts.Interval.Seconds(),
			EvictionStrategy: strategyName(opts.EvictionStrategy),
			Stats: statsPayload{
				Sweeps:             stats.Sweeps,
				FilesRemoved:       stats.FilesRemoved,
				BytesFreed:         stats.BytesFreed,
				DirectoriesRemoved: stats.DirectoriesRemoved,
				Failures:           stats.Failures,
			},
		}
		if !stats.LastSweep.IsZero() {
			last := stats.LastSweep.UTC()
			item.Stats.LastSweep = &last
		}
		if size, err := r.CurrentSize(); err != nil {
			item.SizeError = err.Error()
		} else {
			item.CurrentSize = size
		}
		result = append(result, item)
	}
	return result
}

func encodeStrategies(list []eviction.Metadata) []strategyPayload {
	result := make([]strategyPayload, 0, len(list))
	for _, meta := range list {
		result = append(result, strategyPayload{
			Name:        meta.Name,
			Description: meta.Description,
		})
	}
	return result
}

func strategyName(name string) string {
	if meta, ok := eviction.Resolve(name); ok {
		return meta.Name
	}
	return name
}
