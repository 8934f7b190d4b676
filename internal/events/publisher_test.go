package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraevents "github.com/jonesrussell/company-url-collector/infrastructure/events"
	"github.com/jonesrussell/company-url-collector/internal/domain"
	"github.com/jonesrussell/company-url-collector/internal/events"
)

func newPublisher(t *testing.T) (*events.Publisher, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return events.NewPublisher(client, nil), client
}

func readEvents(t *testing.T, client *redis.Client) []map[string]any {
	t.Helper()

	msgs, err := client.XRange(context.Background(), infraevents.StreamName, "-", "+").Result()
	require.NoError(t, err)

	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		raw, ok := m.Values["event"].(string)
		require.True(t, ok)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		out = append(out, decoded)
	}
	return out
}

func TestNewPublisher_NilClient(t *testing.T) {
	t.Parallel()

	assert.Nil(t, events.NewPublisher(nil, nil))
}

func TestPublisher_NilReceiverIsNoOp(t *testing.T) {
	t.Parallel()

	var pub *events.Publisher
	require.NoError(t, pub.Publish(context.Background(), infraevents.CollectionEvent{}))
	require.NoError(t, pub.AfterCollect(context.Background(), domain.CollectionResult{}))
	pub.PublishAsync(infraevents.CollectionEvent{})
}

func TestPublisher_Publish_FillsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	pub, client := newPublisher(t)
	require.NoError(t, pub.Publish(context.Background(), infraevents.CollectionEvent{
		EventType:  infraevents.CollectionCompleted,
		CompanyKey: "elastic",
	}))

	got := readEvents(t, client)
	require.Len(t, got, 1)

	id, err := uuid.Parse(got[0]["event_id"].(string))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.NotEmpty(t, got[0]["timestamp"])
	assert.Equal(t, "elastic", got[0]["company_key"])
}

func TestPublisher_AfterCollect_Success(t *testing.T) {
	t.Parallel()

	pub, client := newPublisher(t)
	validated := []domain.URLRecord{
		{URL: "https://elastic.co/blog", IsFirstParty: true, IsRelevant: true},
		{URL: "https://news.com/elastic", IsRelevant: true},
	}
	res := domain.Succeeded(domain.CollectionRequest{
		CompanyName: "Elastic N.V.",
		CompanyURL:  "https://elastic.co",
		Duration:    domain.Last7Days,
	}, "2025-01-01T00:00:00Z", domain.Summarize(validated, validated))

	require.NoError(t, pub.AfterCollect(context.Background(), res))

	got := readEvents(t, client)
	require.Len(t, got, 1)
	assert.Equal(t, string(infraevents.CollectionCompleted), got[0]["event_type"])
	assert.Equal(t, "elastic_n_v_", got[0]["company_key"])

	payload := got[0]["payload"].(map[string]any)
	assert.InDelta(t, 2, payload["new_urls_found"], 0)
	assert.InDelta(t, 1, payload["first_party"], 0)
	assert.Equal(t, []any{"https://elastic.co/blog", "https://news.com/elastic"}, payload["new_urls"])
}

func TestPublisher_AfterCollect_Failure(t *testing.T) {
	t.Parallel()

	pub, client := newPublisher(t)
	res := domain.Failed(domain.CollectionRequest{CompanyName: "Elastic", Duration: domain.LastMonth},
		"2025-01-01T00:00:00Z", domain.ErrSearchUnavailable)

	require.NoError(t, pub.AfterCollect(context.Background(), res))

	got := readEvents(t, client)
	require.Len(t, got, 1)
	assert.Equal(t, string(infraevents.CollectionFailed), got[0]["event_type"])
	payload := got[0]["payload"].(map[string]any)
	assert.Equal(t, "search_unavailable", payload["error_kind"])
}

func TestPublisher_PublishAsync(t *testing.T) {
	t.Parallel()

	pub, client := newPublisher(t)
	pub.PublishAsync(infraevents.CollectionEvent{EventType: infraevents.CollectionCompleted, CompanyKey: "elastic"})

	assert.Eventually(t, func() bool {
		n, err := client.XLen(context.Background(), infraevents.StreamName).Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublisher_RedisDown(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	err := events.NewPublisher(client, nil).Publish(context.Background(), infraevents.CollectionEvent{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
