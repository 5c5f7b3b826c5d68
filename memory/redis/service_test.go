//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-graph-go/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	svc, err := NewService(WithRedisClient(goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewServiceRequiresClient(t *testing.T) {
	_, err := NewService()
	assert.Error(t, err)
}

func TestNewServiceFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	svc, err := NewService(WithRedisClientURL("redis://" + mr.Addr()))
	require.NoError(t, err)
	defer svc.Close()

	ns := memory.Namespace{AppName: "support", UserID: "42"}
	require.NoError(t, svc.Put(context.Background(), ns, "k", json.RawMessage(`1`)))
}

func TestServicePutGetDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	ns := memory.Namespace{AppName: "support", UserID: "42"}

	_, found, err := svc.Get(ctx, ns, "profile")
	require.NoError(t, err)
	assert.False(t, found)

	profile := json.RawMessage(`{"interest":"music"}`)
	require.NoError(t, svc.Put(ctx, ns, "profile", profile))

	got, found, err := svc.Get(ctx, ns, "profile")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, string(profile), string(got))

	updated := json.RawMessage(`{"interest":"jazz"}`)
	require.NoError(t, svc.Put(ctx, ns, "profile", updated))
	got, _, err = svc.Get(ctx, ns, "profile")
	require.NoError(t, err)
	assert.JSONEq(t, string(updated), string(got))

	require.NoError(t, svc.Delete(ctx, ns, "profile"))
	_, found, err = svc.Get(ctx, ns, "profile")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestServiceNamespaceIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := memory.Namespace{AppName: "support", UserID: "1"}
	bob := memory.Namespace{AppName: "support", UserID: "2"}

	require.NoError(t, svc.Put(ctx, alice, "profile", json.RawMessage(`"a"`)))
	require.NoError(t, svc.Put(ctx, bob, "profile", json.RawMessage(`"b"`)))

	got, _, err := svc.Get(ctx, alice, "profile")
	require.NoError(t, err)
	assert.Equal(t, `"a"`, string(got))

	require.NoError(t, svc.Delete(ctx, alice, "profile"))
	_, found, err := svc.Get(ctx, bob, "profile")
	require.NoError(t, err)
	assert.True(t, found, "deleting one namespace leaves others intact")
}

func TestServiceValidatesArguments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Get(ctx, memory.Namespace{}, "k")
	assert.ErrorIs(t, err, memory.ErrAppNameRequired)

	err = svc.Put(ctx, memory.Namespace{AppName: "a", UserID: "1"}, "", nil)
	assert.ErrorIs(t, err, memory.ErrKeyRequired)
}
