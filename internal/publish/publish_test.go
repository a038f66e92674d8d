package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gearhound/gearpage-scraper/internal/models"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestPublishBatch(t *testing.T) {
	mockRedis := new(MockRedisClient)
	publisher := NewBatchPublisher(mockRedis, "gearpage:batches")

	batch := models.NewPageBatch("prs silver sky", 1, []models.SearchResultRecord{
		{Link: "https://www.thegearpage.net/board/threads/a.1/"},
	})

	mockRedis.On("XAdd", mock.Anything, mock.MatchedBy(func(args *redis.XAddArgs) bool {
		return args.Stream == "gearpage:batches" &&
			args.Values.(map[string]interface{})["page"] == 1 &&
			args.Values.(map[string]interface{})["result_count"] == 1
	})).Return(nil)

	err := publisher.Publish(context.Background(), batch)
	require.NoError(t, err)
	mockRedis.AssertExpectations(t)
}

func TestPublishBatchRedisError(t *testing.T) {
	mockRedis := new(MockRedisClient)
	publisher := NewBatchPublisher(mockRedis, "gearpage:batches")

	mockRedis.On("XAdd", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	err := publisher.Publish(context.Background(), models.NewPageBatch("q", 2, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPublisherClose(t *testing.T) {
	mockRedis := new(MockRedisClient)
	publisher := NewBatchPublisher(mockRedis, "gearpage:batches")

	mockRedis.On("Close").Return(nil)
	require.NoError(t, publisher.Close())
	mockRedis.AssertExpectations(t)
}
