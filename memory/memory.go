//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

// Package memory defines the long-term memory store contract: namespaced
// key-value storage that outlives individual sessions, used for data such as
// per-user profiles accumulated across conversations.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrAppNameRequired is returned when the namespace has no app name.
	ErrAppNameRequired = errors.New("appName is required")
	// ErrUserIDRequired is returned when the namespace has no user ID.
	ErrUserIDRequired = errors.New("userID is required")
	// ErrKeyRequired is returned when the key is empty.
	ErrKeyRequired = errors.New("key is required")
)

// Namespace scopes stored values. Values in different namespaces never
// interfere, even under the same key.
type Namespace struct {
	// AppName is the name of the application.
	AppName string
	// UserID is the unique identifier of the user.
	UserID string
}

// Check validates the namespace.
func (n Namespace) Check() error {
	if n.AppName == "" {
		return ErrAppNameRequired
	}
	if n.UserID == "" {
		return ErrUserIDRequired
	}
	return nil
}

// String returns the canonical storage key prefix for the namespace.
func (n Namespace) String() string {
	return fmt.Sprintf("%s:%s", n.AppName, n.UserID)
}

// Service is the long-term memory store contract. Implementations must be
// safe for concurrent use across namespaces. An absent value is not an
// error: Get reports it through the boolean.
type Service interface {
	// Get returns the value stored under (namespace, key), or false when
	// absent.
	Get(ctx context.Context, ns Namespace, key string) (json.RawMessage, bool, error)
	// Put stores a value under (namespace, key), overwriting any previous
	// value. Put is idempotent.
	Put(ctx context.Context, ns Namespace, key string, value json.RawMessage) error
	// Delete removes the value under (namespace, key). Deleting an absent
	// key is not an error.
	Delete(ctx context.Context, ns Namespace, key string) error
	// Close releases resources held by the service.
	Close() error
}
