//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory memory service implementation.
package inmemory

import (
	"context"
	"encoding/json"
	"sync"

	"trpc.group/trpc-go/trpc-graph-go/memory"
)

// Service is an in-memory implementation of memory.Service.
type Service struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]json.RawMessage
}

// NewService creates a new in-memory memory service.
func NewService() *Service {
	return &Service{
		namespaces: make(map[string]map[string]json.RawMessage),
	}
}

// Get returns the value stored under (namespace, key).
func (s *Service) Get(ctx context.Context, ns memory.Namespace, key string) (json.RawMessage, bool, error) {
	if err := checkArgs(ns, key); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.namespaces[ns.String()][key]
	if !ok {
		return nil, false, nil
	}
	out := make(json.RawMessage, len(value))
	copy(out, value)
	return out, true, nil
}

// Put stores a value under (namespace, key), overwriting any previous value.
func (s *Service) Put(ctx context.Context, ns memory.Namespace, key string, value json.RawMessage) error {
	if err := checkArgs(ns, key); err != nil {
		return err
	}
	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.namespaces[ns.String()]
	if !ok {
		bucket = make(map[string]json.RawMessage)
		s.namespaces[ns.String()] = bucket
	}
	bucket[key] = stored
	return nil
}

// Delete removes the value under (namespace, key).
func (s *Service) Delete(ctx context.Context, ns memory.Namespace, key string) error {
	if err := checkArgs(ns, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces[ns.String()], key)
	return nil
}

// Close releases resources. It is a no-op for the in-memory service.
func (s *Service) Close() error {
	return nil
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
