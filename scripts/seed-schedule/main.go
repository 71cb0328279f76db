// Seeds the redis schedule config with the default policy, or with the JSON
// file given as the first argument. Run once after provisioning a clinic.
package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/ginecare/booking-platform/internal/config"
	"github.com/ginecare/booking-platform/internal/schedule"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	policy := schedule.DefaultConfig()
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("read %s: %v", os.Args[1], err)
		}
		policy = &schedule.Config{}
		if err := json.Unmarshal(data, policy); err != nil {
			log.Fatalf("parse %s: %v", os.Args[1], err)
		}
	}

	opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	store := schedule.NewStore(client)
	if err := store.Set(context.Background(), policy); err != nil {
		log.Fatalf("save schedule config: %v", err)
	}
	log.Printf("schedule config saved (%d work days)", len(policy.WorkDays))
}
