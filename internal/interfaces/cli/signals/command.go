package signals

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/pubsub"
	"github.com/bookwell-inc/bookwell/internal/interfaces/bootstrap"
)

var env string

type line struct {
	Origin    string             `json:"origin"`
	EventType string             `json:"event_type"`
	Event     events.DomainEvent `json:"event"`
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Tail booking and payment signals relayed over Redis",
		Long:  `Subscribe to the Redis signal channel and print every relayed signal as one JSON line.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap.Load(env)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.OpenRedis(ctx); err != nil {
		return err
	}

	log := rt.Log.Named("signals")
	bus := pubsub.NewRedisSignalBus(rt.Redis, rt.Config.Redis.Channel, log)

	var mu sync.Mutex
	enc := json.NewEncoder(cmd.OutOrStdout())

	err = bus.Subscribe(ctx, func(_ context.Context, event events.DomainEvent) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(line{
			Origin:    event.GetOrigin(),
			EventType: event.GetEventType(),
			Event:     event,
		}); err != nil {
			log.Warnw("failed to write signal", "event_type", event.GetEventType(), "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
