// Package index mirrors stored URL records into Elasticsearch for search
// and aggregation.
package index

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/canonical"
	"github.com/jonesrussell/company-url-collector/internal/domain"
)

const (
	// DefaultIndex is the index records are written to.
	DefaultIndex = "company_urls"
	// HookName identifies the indexer among post-collection hooks.
	HookName = "index"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "company":        {"type": "keyword"},
      "company_key":    {"type": "keyword"},
      "url":            {"type": "keyword"},
      "domain":         {"type": "keyword"},
      "title":          {"type": "text"},
      "description":    {"type": "text"},
      "timestamp":      {"type": "date"},
      "is_first_party": {"type": "boolean"},
      "is_relevant":    {"type": "boolean"}
    }
  }
}`

// Document is the indexed form of a URLRecord.
type Document struct {
	Company    string `json:"company"`
	CompanyKey string `json:"company_key"`
	Domain     string `json:"domain"`
	domain.URLRecord
}

// DocumentID derives a stable id from the company key and URL.
func DocumentID(companyKey, rawURL string) string {
	sum := sha256.Sum256([]byte(companyKey + "\x00" + rawURL))
	return hex.EncodeToString(sum[:])
}

// Indexer writes records with bulk create operations. A record that is
// already indexed is left untouched.
type Indexer struct {
	client *es.Client
	index  string
	log    infralogger.Logger
}

// NewIndexer returns nil if client is nil; a nil Indexer is a no-op.
func NewIndexer(client *es.Client, index string, log infralogger.Logger) *Indexer {
	if client == nil {
		return nil
	}
	if index == "" {
		index = DefaultIndex
	}
	if log == nil {
		log = infralogger.NewNop()
	}
	return &Indexer{client: client, index: index, log: log}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	if i == nil {
		return nil
	}

	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", i.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index %s: %s", i.index, res.Status())
	}

	res, err = i.client.Indices.Create(i.index,
		i.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		i.client.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", i.index, res.String())
	}

	i.log.Info("Created Elasticsearch index", infralogger.String("index", i.index))
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// IndexRecords bulk-creates documents for records. It returns how many
// documents were created; conflicts with existing documents are not
// errors.
func (i *Indexer) IndexRecords(ctx context.Context, company string, records []domain.URLRecord) (int, error) {
	if i == nil || len(records) == 0 {
		return 0, nil
	}

	key := domain.CompanyKey(company)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		meta := map[string]any{
			"create": map[string]any{
				"_index": i.index,
				"_id":    DocumentID(key, r.URL),
			},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("encode bulk meta: %w", err)
		}
		doc := Document{Company: company, CompanyKey: key, Domain: canonical.Domain(r.URL), URLRecord: r}
		if err := enc.Encode(doc); err != nil {
			return 0, fmt.Errorf("encode document: %w", err)
		}
	}

	res, err := i.client.Bulk(bytes.NewReader(buf.Bytes()), i.client.Bulk.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("bulk request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("bulk indexing error: %s", res.String())
	}

	var parsed bulkResponse
	if err = json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}

	created, failed := 0, 0
	var firstErr string
	for _, item := range parsed.Items {
		for _, result := range item {
			switch {
			case result.Status == http.StatusCreated:
				created++
			case result.Status == http.StatusConflict:
			default:
				failed++
				if firstErr == "" && result.Error != nil {
					firstErr = result.Error.Type + ": " + result.Error.Reason
				}
			}
		}
	}
	if failed > 0 {
		return created, fmt.Errorf("bulk indexing: %d of %d documents failed: %s", failed, len(records), firstErr)
	}
	return created, nil
}

// Name implements collector.Hook.
func (i *Indexer) Name() string {
	return HookName
}

// AfterCollect implements collector.Hook. It indexes the stored version of
// each newly validated record.
func (i *Indexer) AfterCollect(ctx context.Context, res domain.CollectionResult) error {
	if i == nil || !res.Success || res.Summary == nil {
		return nil
	}

	wanted := make(map[string]struct{}, len(res.NewURLs))
	for _, r := range res.NewURLs {
		wanted[r.URL] = struct{}{}
	}
	stored := make([]domain.URLRecord, 0, len(wanted))
	for _, r := range res.AllURLs {
		if _, ok := wanted[r.URL]; ok {
			stored = append(stored, r)
		}
	}

	created, err := i.IndexRecords(ctx, res.Company, stored)
	if err != nil {
		return err
	}
	i.log.Debug("Indexed collection records",
		infralogger.String("company", res.Company),
		infralogger.Int("created", created))
	return nil
}
