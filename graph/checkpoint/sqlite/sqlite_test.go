//
// Tencent is pleased to support the open source community by making trpc-graph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-graph-go is licensed under the Apache License Version 2.0.
//
//

package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-graph-go/graph"
)

func newTestSaver(t *testing.T) (*Saver, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	saver, err := NewSaver(path)
	require.NoError(t, err)
	t.Cleanup(func() { saver.Close() })
	return saver, path
}

func TestSaverAppendAndRead(t *testing.T) {
	saver, _ := newTestSaver(t)
	ctx := context.Background()

	for step := 1; step <= 3; step++ {
		cp := graph.NewCheckpoint("s1", step, graph.State{"step": step}, "node")
		require.NoError(t, saver.Put(ctx, cp))
	}

	latest, err := saver.Latest(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Step)

	all, err := saver.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[0].Step)
	assert.Equal(t, 3, all[2].Step)

	got, err := saver.Get(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Step)
	assert.Equal(t, "node", got.NextNode)
}

func TestSaverRejectsDuplicateStep(t *testing.T) {
	saver, _ := newTestSaver(t)
	ctx := context.Background()

	require.NoError(t, saver.Put(ctx, graph.NewCheckpoint("s1", 1, graph.State{}, "a")))
	err := saver.Put(ctx, graph.NewCheckpoint("s1", 1, graph.State{}, "b"))
	assert.Error(t, err, "primary key enforces append-only semantics")
}

func TestSaverUnknownSession(t *testing.T) {
	saver, _ := newTestSaver(t)
	_, err := saver.Latest(context.Background(), "missing")
	assert.ErrorIs(t, err, graph.ErrSessionNotFound)
}

func TestSaverPersistsInterruptState(t *testing.T) {
	saver, _ := newTestSaver(t)
	ctx := context.Background()

	cp := graph.NewCheckpoint("s1", 1, graph.State{"k": "v"}, "ask")
	cp.Interrupt = &graph.InterruptState{NodeID: "ask", Payload: "need identifier"}
	require.NoError(t, saver.Put(ctx, cp))

	read, err := saver.Latest(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, read.Interrupt)
	assert.Equal(t, "ask", read.Interrupt.NodeID)
	assert.Equal(t, "need identifier", read.Interrupt.Payload)
	assert.True(t, read.IsInterrupted())
}

func TestNewSaverFromDBLeavesHandleOpen(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	ctx := context.Background()

	saver, err := NewSaverFromDB(db)
	require.NoError(t, err)
	require.NoError(t, saver.Put(ctx, graph.NewCheckpoint("s1", 1, graph.State{}, "a")))

	// Closing a wrapped saver leaves the caller-owned handle usable.
	require.NoError(t, saver.Close())
	require.NoError(t, db.Ping())

	again, err := NewSaverFromDB(db)
	require.NoError(t, err)
	latest, err := again.Latest(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Step)
}

func TestSaverDeleteSession(t *testing.T) {
	saver, _ := newTestSaver(t)
	ctx := context.Background()

	require.NoError(t, saver.Put(ctx, graph.NewCheckpoint("s1", 1, graph.State{}, "a")))
	require.NoError(t, saver.DeleteSession(ctx, "s1"))
	_, err := saver.Latest(ctx, "s1")
	assert.ErrorIs(t, err, graph.ErrSessionNotFound)
}

// TestResumeSurvivesRestart suspends a session, closes the store to simulate
// a process restart, reopens the same database with a fresh executor, and
// resumes. The continuation must behave exactly as without a restart.
func TestResumeSurvivesRestart(t *testing.T) {
	schema := graph.NewStateSchema()
	schema.AddField("answer", graph.StateField{Reducer: graph.OverwriteReducer})
	buildGraph := func() *graph.Graph {
		g, err := graph.NewStateGraph(schema).
			AddNode("ask", func(ctx context.Context, state graph.State) (any, error) {
				value, err := graph.Suspend(ctx, state, "need identifier")
				if err != nil {
					return nil, err
				}
				return graph.State{"answer": value}, nil
			}).
			SetEntryPoint("ask").
			SetFinishPoint("ask").
			Compile()
		require.NoError(t, err)
		return g
	}

	path := filepath.Join(t.TempDir(), "checkpoints.db")
	ctx := context.Background()

	saver1, err := NewSaver(path)
	require.NoError(t, err)
	exec1, err := graph.NewExecutor(buildGraph(), graph.WithCheckpointSaver(saver1))
	require.NoError(t, err)

	result, err := exec1.Invoke(ctx, "", nil)
	require.NoError(t, err)
	require.NotNil(t, result.Interrupt)
	assert.Equal(t, "need identifier", result.Interrupt.Payload)
	sessionID := result.SessionID
	require.NoError(t, saver1.Close())

	// Restart: nothing survives but the database file.
	saver2, err := NewSaver(path)
	require.NoError(t, err)
	defer saver2.Close()
	exec2, err := graph.NewExecutor(buildGraph(), graph.WithCheckpointSaver(saver2))
	require.NoError(t, err)

	snapshot, err := exec2.GetState(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, snapshot.Suspended)

	resumed, err := exec2.Resume(ctx, sessionID, 42)
	require.NoError(t, err)
	require.NotNil(t, resumed.Final)
	assert.EqualValues(t, 42, resumed.Final["answer"])

	_, err = exec2.Resume(ctx, sessionID, 42)
	assert.ErrorIs(t, err, graph.ErrNotSuspended)
}
