package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// NotificationConsumer drains the notification topic and hands each
// message to the mailer.
type NotificationConsumer interface {
	Start(ctx context.Context) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

// MailerConfig sizes the consumer side of the pipeline.
type MailerConfig struct {
	Brokers      []string
	GroupID      string
	Topics       []string
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
}

type mailerConsumer struct {
	group  sarama.ConsumerGroup
	config *MailerConfig
	mailer EmailService
	ctx    context.Context
	cancel context.CancelFunc
}

func NewMailerConsumer(cfg *MailerConfig, mailer EmailService) (NotificationConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	// Old messages are stale mail; start from the tip.
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &mailerConsumer{
		group:  group,
		config: cfg,
		mailer: mailer,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (mc *mailerConsumer) Start(ctx context.Context) error {
	log.Printf("📥 Starting %d mailer workers for topics: %v", mc.config.Workers, mc.config.Topics)

	go mc.drainErrors()

	var wg sync.WaitGroup
	for i := 0; i < mc.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			mc.runWorker(ctx, workerID)
		}(i)
	}

	return nil
}

func (mc *mailerConsumer) runWorker(ctx context.Context, workerID int) {
	session := &mailerSession{
		workerID:   workerID,
		mailer:     mc.mailer,
		maxRetries: mc.config.MaxRetries,
		backoff:    mc.config.RetryBackoff,
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("📥 Mailer worker %d shutting down", workerID)
			return
		default:
			// Consume returns on every rebalance; loop back in.
			if err := mc.group.Consume(ctx, mc.config.Topics, session); err != nil {
				log.Printf("📥 Mailer worker %d consume error: %v", workerID, err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (mc *mailerConsumer) drainErrors() {
	for err := range mc.group.Errors() {
		log.Printf("📥 Mailer consumer group error: %v", err)
	}
}

func (mc *mailerConsumer) Stop() error {
	log.Println("📥 Stopping mailer consumer...")
	mc.cancel()

	if err := mc.group.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}

	log.Println("📥 Mailer consumer stopped")
	return nil
}

func (mc *mailerConsumer) HealthCheck(ctx context.Context) error {
	select {
	case <-mc.ctx.Done():
		return fmt.Errorf("mailer consumer is stopped")
	default:
		if mc.mailer == nil {
			return fmt.Errorf("mailer is not configured")
		}
		return nil
	}
}

// mailerSession is one worker's sarama.ConsumerGroupHandler. Messages are
// committed only after the mail went out, so an SMTP outage replays them to
// another worker instead of dropping them.
type mailerSession struct {
	workerID   int
	mailer     EmailService
	maxRetries int
	backoff    time.Duration
}

func (s *mailerSession) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (s *mailerSession) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (s *mailerSession) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := s.handle(session.Context(), message); err != nil {
				log.Printf("📥 Mailer worker %d: dropping message at offset %d: %v",
					s.workerID, message.Offset, err)
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (s *mailerSession) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var notification EmailNotification
	if err := json.Unmarshal(message.Value, &notification); err != nil {
		return fmt.Errorf("failed to decode notification: %w", err)
	}

	// Refund and cancellation mail loses its value fast; expired
	// notifications are acknowledged and skipped.
	if notification.IsExpired() {
		log.Printf("📥 Mailer worker %d: notification %s expired, skipping", s.workerID, notification.ID)
		return nil
	}

	notification.Status = NotificationStatusSending

	if err := s.deliverWithRetry(ctx, &notification); err != nil {
		notification.MarkFailed(err)
		return err
	}

	notification.MarkSent()
	log.Printf("📧 Mailer worker %d: sent %s mail to %s", s.workerID, notification.Type, notification.RecipientEmail)
	return nil
}

func (s *mailerSession) deliverWithRetry(ctx context.Context, notification *EmailNotification) error {
	for attempt := 0; ; attempt++ {
		err := s.mailer.SendNotification(ctx, notification)
		if err == nil {
			return nil
		}
		if attempt == s.maxRetries {
			return fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		delay := s.backoff * time.Duration(1<<attempt)
		log.Printf("📥 Mailer worker %d: delivery attempt %d failed, retrying in %v: %v",
			s.workerID, attempt+1, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
