// Package scheduler queues voice messages onto asynq and runs the worker
// that drains them through the intake pipeline.
package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"fieldvoice_backend/platform/config"
)

// Client enqueues voice:process tasks. A nil Client is a no-op enqueuer.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient connects to the configured Redis instance.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueVoiceProcess queues one voice message for background processing.
func (c *Client) EnqueueVoiceProcess(ctx context.Context, messageID uuid.UUID, audioURL, customerPhone string, organizationID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewVoiceProcessTask(VoiceProcessPayload{
		MessageID:      messageID,
		AudioURL:       audioURL,
		CustomerPhone:  customerPhone,
		OrganizationID: organizationID,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
