// Package backupsync pushes finished backup documents to an optional
// user-configured HTTP endpoint, giving the offline data set an off-site
// copy. The record store itself never goes over the network.
package backupsync

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client uploads a rendered backup document.
type Client interface {
	Upload(ctx context.Context, filename string, content []byte) error
}

// HTTPClient is a resty-backed implementation of Client.
type HTTPClient struct {
	httpClient *resty.Client
	uploadURL  string
}

// NewClient builds an uploader targeting the given endpoint.
func NewClient(uploadURL string) *HTTPClient {
	restyClient := resty.New()
	restyClient.
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &HTTPClient{
		httpClient: restyClient,
		uploadURL:  uploadURL,
	}
}

// Upload POSTs the document body to the endpoint. Any non-2xx response is an
// error; the caller decides whether that is fatal (the scheduler treats it as
// log-and-continue).
func (c *HTTPClient) Upload(ctx context.Context, filename string, content []byte) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet").
		SetHeader("X-Backup-Filename", filename).
		SetBody(content).
		Post(c.uploadURL)
	if err != nil {
		return fmt.Errorf("upload backup %s: %w", filename, err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload backup %s: endpoint returned %s", filename, resp.Status())
	}
	return nil
}
