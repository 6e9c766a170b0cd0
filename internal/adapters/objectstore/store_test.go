package objectstore

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"

	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
	"github.com/swift-nav/flow/internal/testutil"
)

type ObjectStoreIntegrationTestSuite struct {
	suite.Suite
	container testcontainers.Container
	pool      *pgxpool.Pool
	store     ports.ObjectStore
	ctx       context.Context
}

func (s *ObjectStoreIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.container, s.pool = testutil.SetupTestDatabase(s.T(), s.ctx)
	s.store = NewPostgresObjectStore(s.pool)
}

func (s *ObjectStoreIntegrationTestSuite) TearDownSuite() {
	testutil.CleanupTestDatabase(s.T(), s.ctx, s.container, s.pool)
}

func (s *ObjectStoreIntegrationTestSuite) SetupTest() {
	testutil.TruncateTables(s.T(), s.ctx, s.pool)
}

func (s *ObjectStoreIntegrationTestSuite) TestPutThenGet() {
	uid := domain.Uid("uid-1")
	require.NoError(s.T(), s.store.Put(s.ctx, uid, "path/to/file.txt", []byte("hello")))

	data, err := s.store.Get(s.ctx, uid, "path/to/file.txt")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []byte("hello"), data)
}

func (s *ObjectStoreIntegrationTestSuite) TestPutOverwritesExistingKey() {
	uid := domain.Uid("uid-2")
	require.NoError(s.T(), s.store.Put(s.ctx, uid, "k", []byte("v1")))
	require.NoError(s.T(), s.store.Put(s.ctx, uid, "k", []byte("v2")))

	data, err := s.store.Get(s.ctx, uid, "k")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []byte("v2"), data)
}

func (s *ObjectStoreIntegrationTestSuite) TestListKeysIsScopedToUidPrefix() {
	uidA := domain.Uid("uid-a")
	uidB := domain.Uid("uid-b")

	require.NoError(s.T(), s.store.Put(s.ctx, uidA, "one", []byte("1")))
	require.NoError(s.T(), s.store.Put(s.ctx, uidA, "two", []byte("2")))
	require.NoError(s.T(), s.store.Put(s.ctx, uidB, "three", []byte("3")))

	keys, err := s.store.ListKeys(s.ctx, uidA)
	require.NoError(s.T(), err)
	assert.ElementsMatch(s.T(), []string{"one", "two"}, keys)
}

func (s *ObjectStoreIntegrationTestSuite) TestGetMissingKeyIsProtocolError() {
	_, err := s.store.Get(s.ctx, domain.Uid("uid-missing"), "nope")
	var protoErr *domain.ProtocolError
	require.ErrorAs(s.T(), err, &protoErr)
}

func (s *ObjectStoreIntegrationTestSuite) TestListKeysEmptyPrefixReturnsEmpty() {
	keys, err := s.store.ListKeys(s.ctx, domain.Uid("never-written"))
	require.NoError(s.T(), err)
	assert.Empty(s.T(), keys)
}

func TestObjectStoreIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ObjectStoreIntegrationTestSuite))
}
