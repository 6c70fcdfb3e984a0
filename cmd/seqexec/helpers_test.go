package main

import (
	"context"
	"testing"
	"time"

	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/pkg/api"
)

const (
	waitTimeout = 3 * time.Second
	tick        = 10 * time.Millisecond
)

func instant(
	context.Context, engine.StartAction, engine.Reporter,
) (api.Args, error) {
	return api.Args{}, nil
}

func newTestEngine(t *testing.T, s *seqexec) *engine.Engine {
	t.Helper()
	e := engine.New(s.cfg, s.performer)
	e.Start()
	t.Cleanup(func() { _ = e.Stop() })
	return e
}
