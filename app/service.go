// Package app wires the configured components into a running service: the
// MQTT device client, the command engine, the scheduler, the activity store
// and the observability surfaces.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apiactivity "github.com/evsched/evsched/api/activity"
	"github.com/evsched/evsched/config"
	"github.com/evsched/evsched/core/activity"
	"github.com/evsched/evsched/core/engine"
	"github.com/evsched/evsched/core/events"
	"github.com/evsched/evsched/core/inactivity"
	coremetrics "github.com/evsched/evsched/core/metrics"
	"github.com/evsched/evsched/core/schedule"
	"github.com/evsched/evsched/core/wake"
	"github.com/evsched/evsched/infra/logger"
	"github.com/evsched/evsched/infra/metrics"
	"github.com/evsched/evsched/infra/mqtt"
	"github.com/evsched/evsched/infra/notify"
	"github.com/evsched/evsched/internal/eventbus"
)

// Service orchestrates the engine and its collaborators.
type Service struct {
	Engine    *engine.Engine
	Scheduler *schedule.Scheduler
	Activity  *activity.Log

	device *mqtt.DeviceClient
	sender *notify.MQTTSender
	store  activity.Store
	sink   coremetrics.Sink
	bus    eventbus.EventBus
	log    logger.Logger

	metricsCfg coremetrics.Config
	apiCfg     config.APIConfig
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	device, err := mqtt.NewDeviceClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("device client: %w", err)
	}
	sender, err := notify.NewMQTTSender(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("notify sender: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	store, err := activity.NewJSONLStore(cfg.Logging.Path)
	if err != nil {
		return nil, fmt.Errorf("activity store: %w", err)
	}
	actLog := activity.NewLog(logger.New("activity"),
		activity.WithBus(bus), activity.WithStore(store))

	inactivitySink := inactivity.NewMemorySink()
	wakeCtl := wake.NewController(inactivitySink, logger.New("wake"), cfg.Wake, wake.WithBus(bus))

	prefs := engine.StaticPreferences{
		PolicyConfig: cfg.Policy.Policy(),
		Unit:         cfg.Units.TempUnit(),
		Address:      cfg.Notification.Address,
	}
	eng, err := engine.New(device, wakeCtl, inactivitySink, sender, nil, prefs,
		actLog, bus, logger.New("engine"))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	sched, err := schedule.New(cfg.Schedule, eng, logger.New("schedule"))
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	return &Service{
		Engine:     eng,
		Scheduler:  sched,
		Activity:   actLog,
		device:     device,
		sender:     sender,
		store:      store,
		sink:       sink,
		bus:        bus,
		log:        logg,
		metricsCfg: cfg.Metrics,
		apiCfg:     cfg.API,
	}, nil
}

// Run starts the scheduler and observability servers and blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.forwardEvents(ctx)
	go s.Scheduler.Run(ctx)
	if s.metricsCfg.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.metricsCfg.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.apiCfg.Enabled {
		go func() {
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	s.log.Infof("service started")
	<-ctx.Done()
	return nil
}

// forwardEvents bridges terminal command, wake and denial events from the bus
// into the configured metrics sinks.
func (s *Service) forwardEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			s.recordEvent(e)
		}
	}
}

func (s *Service) recordEvent(e eventbus.Event) {
	switch ev := e.(type) {
	case events.CommandEvent:
		res := coremetrics.CommandResult{
			Command:     ev.Command,
			Value:       ev.Value,
			Success:     ev.Outcome.Success || ev.Outcome.OKForSet(),
			Explanation: ev.Outcome.Explanation,
			Retried:     ev.Retried,
			Time:        time.Now(),
		}
		if err := s.sink.RecordCommandResult([]coremetrics.CommandResult{res}); err != nil {
			s.log.Errorf("record command result: %v", err)
		}
	case events.WakeEvent:
		if wr, ok := s.sink.(coremetrics.WakeRecorder); ok {
			if err := wr.RecordWake(coremetrics.WakeEvent{Attempts: ev.Attempts, Woken: ev.Woken, Time: time.Now()}); err != nil {
				s.log.Errorf("record wake: %v", err)
			}
		}
	case events.DenialEvent:
		if dr, ok := s.sink.(coremetrics.DenialRecorder); ok {
			if err := dr.RecordDenial(coremetrics.DenialEvent{Command: ev.Command, Reason: ev.Reason, Time: time.Now()}); err != nil {
				s.log.Errorf("record denial: %v", err)
			}
		}
	}
}

func (s *Service) serveAPI(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/api/activity/log", apiactivity.NewLogHandler(s.store, s.apiCfg.Token))
	srv := &http.Server{Addr: s.apiCfg.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api server shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases broker connections and the activity store.
func (s *Service) Close() error {
	s.bus.Close()
	s.device.Disconnect()
	s.sender.Disconnect()
	return s.store.Close()
}
