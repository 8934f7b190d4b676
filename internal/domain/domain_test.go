package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jonesrussell/company-url-collector/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Elastic":         "elastic",
		"Acme Corp.":      "acme_corp_",
		"Booking.com Ltd": "booking_com_ltd",
		"A.B":             "a_b",
		"a b":             "a_b",
		"":                "",
	}
	for name, want := range tests {
		assert.Equal(t, want, domain.CompanyKey(name), name)
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	for _, name := range domain.DurationNames() {
		d, err := domain.ParseDuration(name)
		require.NoError(t, err)
		assert.True(t, d.Valid())
	}

	_, err := domain.ParseDuration("2 weeks")
	require.ErrorIs(t, err, domain.ErrInvalidDuration)
	assert.Contains(t, err.Error(), "24 hrs, 7 days, 1 Month, 3 Months, 6 Months, 1 year, All time")

	_, err = domain.ParseDuration("1 month")
	require.ErrorIs(t, err, domain.ErrInvalidDuration, "labels are case-sensitive")
}

func TestRecencyFilter(t *testing.T) {
	t.Parallel()

	want := map[domain.Duration]string{
		domain.Last24Hours: "day",
		domain.Last7Days:   "week",
		domain.LastMonth:   "month",
		domain.Last3Months: "month",
		domain.Last6Months: "month",
		domain.LastYear:    "year",
		domain.AllTime:     "",
	}
	for d, filter := range want {
		assert.Equal(t, filter, d.RecencyFilter(), string(d))
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want domain.ErrorKind
	}{
		{nil, ""},
		{fmt.Errorf("parse: %w", domain.ErrMalformedResponse), domain.KindMalformedResponse},
		{fmt.Errorf("post: %w", domain.ErrSearchUnavailable), domain.KindSearchUnavailable},
		{fmt.Errorf("write: %w", domain.ErrStorageUnavailable), domain.KindStorageUnavailable},
		{domain.ErrInvalidDuration, domain.KindInvalidRequest},
		{errors.New("boom"), domain.KindCollectionFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.KindOf(tt.err))
	}
}

func TestSummarize_CountsValidatedOnly(t *testing.T) {
	t.Parallel()

	validated := []domain.URLRecord{
		{URL: "https://elastic.co/blog/x", IsFirstParty: true, IsRelevant: true},
		{URL: "https://techcrunch.com/elastic", IsRelevant: true},
		{URL: "https://somesite.com/404"},
	}
	merged := append([]domain.URLRecord{{URL: "https://old.example.com"}}, validated...)

	s := domain.Summarize(validated, merged)
	assert.Equal(t, 3, s.NewURLsFound)
	assert.Equal(t, 4, s.TotalURLsStored)
	assert.Equal(t, 1, s.FirstPartyCount)
	assert.Equal(t, 2, s.ThirdPartyCount)
	assert.Equal(t, 2, s.RelevantCount)
	assert.Equal(t, 1, s.IrrelevantCount)
}

func TestCollectionResult_JSON(t *testing.T) {
	t.Parallel()

	req := domain.CollectionRequest{CompanyName: "Elastic", CompanyURL: "https://elastic.co", Duration: domain.Last7Days}

	ok, err := json.Marshal(domain.Succeeded(req, "2025-01-01T00:00:00Z", domain.Summarize(nil, nil)))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"company": "Elastic",
		"company_url": "https://elastic.co",
		"search_time": "2025-01-01T00:00:00Z",
		"duration": "7 days",
		"success": true,
		"new_urls_found": 0,
		"total_urls_stored": 0,
		"first_party_count": 0,
		"third_party_count": 0,
		"relevant_count": 0,
		"irrelevant_count": 0,
		"new_urls": [],
		"all_urls": []
	}`, string(ok))

	failed, err := json.Marshal(domain.Failed(req, "2025-01-01T00:00:00Z", fmt.Errorf("post: %w", domain.ErrSearchUnavailable)))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"company": "Elastic",
		"company_url": "https://elastic.co",
		"search_time": "2025-01-01T00:00:00Z",
		"duration": "7 days",
		"success": false,
		"error": "post: search unavailable",
		"error_kind": "search_unavailable"
	}`, string(failed))
}

func TestURLRecord_JSONKeys(t *testing.T) {
	t.Parallel()

	raw := `{"url":"https://elastic.co","title":"t","description":"d","timestamp":"2025-03-01T10:00:00.123456","is_first_party":true,"is_relevant":false}`
	var r domain.URLRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.True(t, r.IsFirstParty)
	assert.False(t, r.IsRelevant)
	assert.Equal(t, "2025-03-01T10:00:00.123456", r.Timestamp)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
