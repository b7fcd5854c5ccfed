//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	redisDB := flag.Int("db", 1, "Redis DB for streams")
	ids := flag.String("ids", "", "comma separated place ids, empty for all places")
	force := flag.Bool("force", false, "resolve again even when coordinates are stored")
	wait := flag.Duration("wait", 60*time.Second, "how long to wait for the result")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr, DB: *redisDB})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := domain.PlacesResolveEvent{
		RequestID:   uuid.New(),
		Force:       *force,
		RequestedAt: time.Now().UTC(),
	}
	for _, id := range strings.Split(*ids, ",") {
		if id = strings.TrimSpace(id); id != "" {
			event.PlaceIDs = append(event.PlaceIDs, id)
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// отвечать будем читать с этой позиции, чтобы не ловить старые итоги
	lastID := "$"
	if last, err := client.XRevRangeN(ctx, domain.StreamPlacesResolved, "+", "-", 1).Result(); err == nil && len(last) > 0 {
		lastID = last[0].ID
	}

	msgID, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamPlacesResolve,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Request published\n")
	fmt.Printf("   Stream: %s\n", domain.StreamPlacesResolve)
	fmt.Printf("   Message ID: %s\n", msgID)
	fmt.Printf("   Request ID: %s\n", event.RequestID)
	fmt.Printf("   Places: %d (0 = all), force=%v\n", len(event.PlaceIDs), event.Force)
	fmt.Printf("\nWaiting for result in %s...\n", domain.StreamPlacesResolved)

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		results, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamPlacesResolved, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Fatalf("Failed to read results: %v", err)
		}

		for _, stream := range results {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				raw, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}
				var resolved domain.PlacesResolvedEvent
				if err := json.Unmarshal([]byte(raw), &resolved); err != nil {
					continue
				}
				if resolved.RequestID != event.RequestID {
					continue
				}
				pretty, _ := json.MarshalIndent(resolved, "", "  ")
				fmt.Printf("\nResult received\n%s\n", pretty)
				return
			}
		}
	}

	fmt.Println("Timeout waiting for result")
}
