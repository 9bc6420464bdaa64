// Package search triggers the downstream person-index refresh after a
// successful registry write. The refresh is best effort by contract: callers
// log failures and move on.
package search

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

type Config struct {
	URL      string
	Index    string
	Username string
	Password string
	Insecure bool
}

// Client wraps the OpenSearch client for the person index.
type Client struct {
	os    *opensearch.Client
	index string
}

func NewClient(cfg Config) (*Client, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	return &Client{os: client, index: cfg.Index}, nil
}

// Reindex refreshes the person index so newly committed records become
// searchable.
func (c *Client) Reindex(ctx context.Context) error {
	req := opensearchapi.IndicesRefreshRequest{Index: []string{c.index}}
	res, err := req.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("refresh index %s: %w", c.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("refresh index %s: %s", c.index, res.Status())
	}
	return nil
}
