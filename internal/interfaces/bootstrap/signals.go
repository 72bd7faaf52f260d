package bootstrap

import (
	"errors"
	"fmt"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"

	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/cache"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/email"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/messaging"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/pubsub"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/push"
)

const dispatcherBufferSize = 256

// Signals is the in-memory dispatcher of one process with its subscribed
// collaborators. Publishing never waits on a collaborator.
type Signals struct {
	Dispatcher *events.InMemoryEventDispatcher
	// Cache and Bus are nil when the runtime has no Redis connection.
	Cache *cache.RedisAvailabilityCache
	Bus   *pubsub.RedisSignalBus

	broker *messaging.SignalPublisher
}

// StartSignals subscribes every enabled collaborator and starts dispatching.
func StartSignals(r *Runtime, repos *Repositories) (*Signals, error) {
	log := r.Log.Named("signals")
	s := &Signals{Dispatcher: events.NewInMemoryEventDispatcher(dispatcherBufferSize, log)}

	var sinks []events.EventHandler

	if r.Redis != nil {
		s.Cache = cache.NewRedisAvailabilityCache(r.Redis, log)
		s.Bus = pubsub.NewRedisSignalBus(r.Redis, r.Config.Redis.Channel, log)
		sinks = append(sinks, s.Cache, s.Bus)
	}

	if cfg := r.Config.AMQP; cfg.Enabled {
		broker, err := messaging.NewSignalPublisher(cfg.URL, cfg.Exchange, log)
		if err != nil {
			return nil, fmt.Errorf("failed to start amqp signal publisher: %w", err)
		}
		s.broker = broker
		sinks = append(sinks, broker)
	}

	if cfg := r.Config.Push; cfg.Enabled {
		sinks = append(sinks, push.NewExpoNotifier(repos.Professionals, &expo.ClientConfig{
			AccessToken: cfg.AccessToken,
		}, log))
	}

	if cfg := r.Config.Email; cfg.Enabled {
		sender := email.NewSMTPEmailService(email.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPassword,
			FromAddress: cfg.FromAddress,
			FromName:    cfg.FromName,
		})
		sinks = append(sinks, email.NewBookingMailer(sender, repos.Clients, repos.Services, log))
	}

	for _, sink := range sinks {
		if err := s.Dispatcher.Subscribe(events.WildcardEventType, sink); err != nil {
			s.closeBroker()
			return nil, fmt.Errorf("failed to subscribe %s: %w", sink.Name(), err)
		}
		log.Infow("signal collaborator subscribed", "handler", sink.Name())
	}

	if err := s.Dispatcher.Start(); err != nil {
		s.closeBroker()
		return nil, fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	return s, nil
}

// Stop drains pending signals, then closes the broker connection.
func (s *Signals) Stop() error {
	err := s.Dispatcher.Stop()
	return errors.Join(err, s.closeBroker())
}

func (s *Signals) closeBroker() error {
	if s.broker == nil {
		return nil
	}
	return s.broker.Close()
}
