package data

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

// maxImageBytes caps attachment downloads
const maxImageBytes = 20 << 20

// URLImageRepo downloads attachments from their public URL
type URLImageRepo struct {
	client *retryablehttp.Client
}

// NewURLImageRepo creates an image repository backed by plain HTTP downloads
func NewURLImageRepo(logger *zap.Logger) *URLImageRepo {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = leveledZap{logger.Named("image").Sugar()}
	return &URLImageRepo{client: client}
}

// FetchImage downloads att.URL
func (r *URLImageRepo) FetchImage(ctx context.Context, _ domain.MessageRef, att domain.Attachment) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, att.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download attachment: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}
