package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/menttor/menttor-backend/internal/clients/imagegen"
	redisclient "github.com/menttor/menttor-backend/internal/clients/redis"
	"github.com/menttor/menttor-backend/internal/platform/gcp"
	"github.com/menttor/menttor-backend/internal/platform/logger"
	"github.com/menttor/menttor-backend/internal/platform/neo4jdb"
	"github.com/menttor/menttor-backend/internal/realtime/bus"
)

type Clients struct {
	Bucket   gcp.BucketService
	Imagegen imagegen.Client
	GenCache redisclient.GenCache
	Bus      bus.Bus
	Neo      *neo4jdb.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis bus only when configured; a single instance runs fine without.
	var sseBus bus.Bus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err := bus.NewRedisBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
		sseBus = b
	}

	// Object storage. Boot continues without it; jobs that need it fail
	// with a clear error instead.
	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Bucket client unavailable", "error", err)
		bucket = nil
	}

	var imgClient imagegen.Client
	if strings.TrimSpace(os.Getenv("IMAGEGEN_BASE_URL")) != "" {
		ic, err := imagegen.NewClient(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init imagegen client: %w", err)
		}
		imgClient = ic
	}

	var neo *neo4jdb.Client
	if strings.TrimSpace(os.Getenv("NEO4J_URI")) != "" {
		n, err := neo4jdb.NewFromEnv(log)
		if err != nil {
			log.Warn("Neo4j unavailable; roadmap graph mirror disabled", "error", err)
		} else {
			neo = n
		}
	}

	return Clients{
		Bucket:   bucket,
		Imagegen: imgClient,
		GenCache: redisclient.NewGenCache(log),
		Bus:      sseBus,
		Neo:      neo,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Neo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = c.Neo.Close(ctx)
		cancel()
	}
	if c.GenCache != nil {
		_ = c.GenCache.Close()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
