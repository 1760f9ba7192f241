package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type IRedis interface {
	PublishEvent(ctx context.Context, channel string, message []byte) error
	Close() error
}

type Options struct {
	Address  string
	Password string
	DB       int
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

func New(opts Options, log *logrus.Logger) IRedis {
	log.Info(fmt.Sprintf("Connecting to Redis at %s...", opts.Address))

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client, log: log}
}

func (r *redisClient) PublishEvent(ctx context.Context, channel string, message []byte) error {
	receivers, err := r.client.Publish(ctx, channel, message).Result()
	if err != nil {
		r.log.Error(fmt.Sprintf("Error publishing to channel %s: %v", channel, err))
		return err
	}
	r.log.Debug(fmt.Sprintf("Published %d bytes to %s (%d receivers)", len(message), channel, receivers))
	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
