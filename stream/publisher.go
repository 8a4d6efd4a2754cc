package stream

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"corkboard-api/domain"
)

const defaultPublishTimeout = 5 * time.Second

// Publisher pushes event envelopes onto the shared Redis channel through a
// bounded worker pool so a slow Redis round trip never blocks a request
// handler. When the buffer is saturated the publish happens inline instead
// of being dropped silently.
type Publisher struct {
	redis   *redis.Client
	channel string
	logger  *log.Logger
	timeout time.Duration

	jobs chan Envelope
	wg   sync.WaitGroup
	once sync.Once
}

// NewPublisher starts the worker pool and returns the publisher.
func NewPublisher(rc *redis.Client, channel string, workers, buffer int, logger *log.Logger) *Publisher {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		redis:   rc,
		channel: channel,
		logger:  logger,
		timeout: defaultPublishTimeout,
		jobs:    make(chan Envelope, buffer),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Publisher) worker() {
	defer p.wg.Done()
	for env := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.send(ctx, env); err != nil {
			p.logger.Errorf("publish %s event: %v", env.Topic, err)
		}
		cancel()
	}
}

// Publish hands the event off for asynchronous delivery to every recipient's
// live sessions. An empty recipient set is a no-op. The returned error only
// covers serialization and the inline fallback path; per-recipient delivery
// failures are local to each instance's hub and never surface here.
func (p *Publisher) Publish(ctx context.Context, ev domain.Event, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}
	env, err := NewEnvelope(ev, recipients)
	if err != nil {
		return err
	}
	select {
	case p.jobs <- env:
		return nil
	default:
	}
	p.logger.Warn("publish buffer saturated; publishing inline")
	return p.send(ctx, env)
}

func (p *Publisher) send(ctx context.Context, env Envelope) error {
	data, err := sonic.Marshal(env)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, p.channel, data).Err()
}

// Close drains the pool. Pending envelopes are still published.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
