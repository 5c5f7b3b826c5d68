//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package redis provides a Redis-backed memory service implementation.
// Each namespace maps to one Redis hash, so cross-namespace isolation is
// enforced by the key space itself.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trpc.group/trpc-go/trpc-graph-go/memory"
)

// keyPrefix namespaces all memory hashes within the Redis key space.
const keyPrefix = "memory"

// ServiceOpts is the options for the redis memory service.
type ServiceOpts struct {
	url    string
	client redis.UniversalClient
}

// ServiceOpt is the option for the redis memory service.
type ServiceOpt func(*ServiceOpts)

// WithRedisClientURL creates a redis client from URL and sets it to the service.
func WithRedisClientURL(url string) ServiceOpt {
	return func(opts *ServiceOpts) {
		opts.url = url
	}
}

// WithRedisClient uses an existing redis client.
// Note: WithRedisClientURL has higher priority than WithRedisClient.
func WithRedisClient(client redis.UniversalClient) ServiceOpt {
	return func(opts *ServiceOpts) {
		opts.client = client
	}
}

// Service is a Redis implementation of memory.Service.
type Service struct {
	client redis.UniversalClient
}

// NewService creates a new redis memory service.
func NewService(opts ...ServiceOpt) (*Service, error) {
	var options ServiceOpts
	for _, opt := range opts {
		opt(&options)
	}
	client := options.client
	if options.url != "" {
		redisOpts, err := redis.ParseURL(options.url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(redisOpts)
	}
	if client == nil {
		return nil, errors.New("redis client or url is required")
	}
	return &Service{client: client}, nil
}

// Get returns the value stored under (namespace, key).
func (s *Service) Get(ctx context.Context, ns memory.Namespace, key string) (json.RawMessage, bool, error) {
	if err := checkArgs(ns, key); err != nil {
		return nil, false, err
	}
	value, err := s.client.HGet(ctx, hashKey(ns), key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis hget: %w", err)
	}
	return json.RawMessage(value), true, nil
}

// Put stores a value under (namespace, key), overwriting any previous value.
func (s *Service) Put(ctx context.Context, ns memory.Namespace, key string, value json.RawMessage) error {
	if err := checkArgs(ns, key); err != nil {
		return err
	}
	if err := s.client.HSet(ctx, hashKey(ns), key, string(value)).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Delete removes the value under (namespace, key).
func (s *Service) Delete(ctx context.Context, ns memory.Namespace, key string) error {
	if err := checkArgs(ns, key); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, hashKey(ns), key).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

// Close closes the underlying redis client.
func (s *Service) Close() error {
	return s.client.Close()
}

func hashKey(ns memory.Namespace) string {
	return fmt.Sprintf("%s:{%s}", keyPrefix, ns.String())
}

func checkArgs(ns memory.Namespace, key string) error {
	if err := ns.Check(); err != nil {
		return err
	}
	if key == "" {
		return memory.ErrKeyRequired
	}
	return nil
}
