package bootstrap

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/fortuna/tigerstats/internal/config"
	"github.com/fortuna/tigerstats/internal/store"
	"github.com/fortuna/tigerstats/internal/store/memory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestOpenStore_Memory(t *testing.T) {
	repo, err := OpenStore(context.Background(), &config.Config{StoreBackend: config.BackendMemory}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, repo)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{StoreBackend: "sqlite"}, quietLogger())
	assert.Error(t, err)
}

func TestSeedDemo(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	require.NoError(t, SeedDemo(ctx, repo, store.DefaultProgramID, quietLogger()))

	players, err := repo.ListActivePlayers(ctx, store.DefaultProgramID)
	require.NoError(t, err)
	assert.NotEmpty(t, players)
}

func TestConnectRedis_GivesUp(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "redis://127.0.0.1:1/0", 2, 10*time.Millisecond, quietLogger())
	assert.ErrorContains(t, err, "after 2 attempts")
}

func TestConnectRedis_BadURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "not a url", 1, time.Millisecond, quietLogger())
	assert.Error(t, err)
}
