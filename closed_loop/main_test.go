package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"vsss-drive/telemetry"
	"vsss-drive/utils"
)

func TestServeTelemetryBusyPortKeepsMatchAlive(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	core, logs := observer.New(zap.DebugLevel)
	log := utils.NewLoggerFromCore(core, utils.INFO)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = serveTelemetry(ctx, telemetry.NewHub("run", log), busy.Addr().String(), log)
	assert.NoError(t, err)
	assert.NoError(t, ctx.Err(), "must return on the listen failure, not wait for shutdown")
	assert.Equal(t, 1, logs.FilterMessageSnippet("Telemetry stopped").Len())
}
