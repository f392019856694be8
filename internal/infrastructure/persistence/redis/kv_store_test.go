package redis_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/evolver/internal/infrastructure/config"
	redisstore "github.com/alchemorsel/evolver/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
	"github.com/alchemorsel/evolver/test/testutils"
)

type RedisKVStoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *redisstore.KVStore
}

func (suite *RedisKVStoreTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	container := testutils.SetupTestRedis(suite.T())

	host, portStr, err := net.SplitHostPort(container.Addr)
	suite.Require().NoError(err)
	port, err := strconv.Atoi(portStr)
	suite.Require().NoError(err)

	logger := zaptest.NewLogger(suite.T())
	client, err := redisstore.NewClient(suite.ctx, config.RedisConfig{
		Host:         host,
		Port:         port,
		PoolSize:     2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, logger)
	suite.Require().NoError(err)

	suite.store = redisstore.NewKVStore(client, "evolver-test:", logger)
}

func (suite *RedisKVStoreTestSuite) TearDownSuite() {
	if suite.store != nil {
		_ = suite.store.Close()
	}
}

func (suite *RedisKVStoreTestSuite) TestGet_MissingKey() {
	_, err := suite.store.Get(suite.ctx, "absent")

	suite.ErrorIs(err, outbound.ErrKeyNotFound)
}

func (suite *RedisKVStoreTestSuite) TestSet_ReplacesValue() {
	suite.Require().NoError(suite.store.Set(suite.ctx, "notebook", []byte(`[{"id":"a"}]`)))
	suite.Require().NoError(suite.store.Set(suite.ctx, "notebook", []byte(`[]`)))

	value, err := suite.store.Get(suite.ctx, "notebook")

	suite.Require().NoError(err)
	suite.Equal("[]", string(value))
}

func (suite *RedisKVStoreTestSuite) TestHealthCheck() {
	suite.NoError(suite.store.HealthCheck(suite.ctx))
}

func TestRedisKVStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RedisKVStoreTestSuite))
}
