package main

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-tensor/bridge"
	"github.com/wippyai/wasm-tensor/config"
	"github.com/wippyai/wasm-tensor/host"
	"github.com/wippyai/wasm-tensor/resource"
	"github.com/wippyai/wasm-tensor/tensor"
)

// session is a heap, a bridge over it and the host module instantiated in a
// fresh wazero runtime.
type session struct {
	ctx    context.Context
	rt     wazero.Runtime
	heap   *resource.Heap
	bridge *bridge.Bridge
	host   *host.Module
	mod    api.Module
	logger *zap.Logger
	events atomic.Uint64
}

type sample struct {
	name   string
	handle resource.Handle
}

type objectRow struct {
	value  string
	typ    string
	handle resource.Handle
	refs   uint32
}

func openSession(ctx context.Context, cfg config.Config, logger *zap.Logger) (*session, error) {
	heap := resource.NewHeap(resource.WithCapacity(cfg.MaxObjects))

	b, err := bridge.New(heap, bridge.WithTypeName(cfg.TypeName), bridge.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	m, err := host.New(b, host.WithName(cfg.ModuleName), host.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	rt := wazero.NewRuntime(ctx)
	mod, err := m.Instantiate(ctx, rt)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	s := &session{
		ctx:    ctx,
		rt:     rt,
		heap:   heap,
		bridge: b,
		host:   m,
		mod:    mod,
		logger: logger,
	}
	heap.Subscribe(resource.ObserverFunc(s.onEvent))
	return s, nil
}

// onEvent logs heap lifecycle events and counts them so the inspector knows
// when its table is stale.
func (s *session) onEvent(e resource.Event) {
	s.events.Add(1)
	name, _ := s.heap.Registry().Name(e.TypeID)
	s.logger.Debug("heap event",
		zap.Stringer("event", e.Type),
		zap.Uint32("handle", uint32(e.Handle)),
		zap.String("type", name),
		zap.Uint32("refs", e.RefCount),
	)
}

func (s *session) Close() {
	s.rt.Close(s.ctx)
	if err := s.heap.Close(); err != nil {
		s.logger.Warn("close heap", zap.Error(err))
	}
}

// seed wraps a fresh tensor and creates one object of each builtin kind.
func (s *session) seed(shape tensor.Shape, dtype tensor.DataType) ([]sample, error) {
	t, err := tensor.New(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	obj, err := s.bridge.Wrap(t)
	if err != nil {
		return nil, bridge.Translate(err)
	}

	n, err := s.heap.NewInt(42)
	if err != nil {
		return nil, err
	}
	str, err := s.heap.NewStr("hello")
	if err != nil {
		return nil, err
	}
	list, err := s.heap.NewList(n, str)
	if err != nil {
		return nil, err
	}

	return []sample{
		{name: t.String(), handle: obj.Handle()},
		{name: "int 42", handle: n},
		{name: `str "hello"`, handle: str},
		{name: "list [42, \"hello\"]", handle: list},
		{name: "none", handle: s.heap.None()},
	}, nil
}

// call invokes an exported host function. A bad name or argument count is
// returned as an error; a failure reported through the pending-error slot is
// not.
func (s *session) call(name string, args ...uint64) ([]uint64, error) {
	return s.host.Call(s.ctx, s.mod, name, args...)
}

func (s *session) objects() []objectRow {
	var rows []objectRow
	s.heap.Each(func(h resource.Handle, id resource.TypeID, v any) bool {
		name, _ := s.heap.Registry().Name(id)
		rows = append(rows, objectRow{handle: h, typ: name, value: describe(v)})
		return true
	})
	// Each holds the backend lock; reference counts are read afterwards.
	for i := range rows {
		rows[i].refs, _ = s.heap.RefCount(rows[i].handle)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].handle < rows[j].handle })
	return rows
}

func describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case *resource.List:
		return fmt.Sprintf("list(len=%d)", v.Len())
	case fmt.Stringer:
		return v.String()
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
