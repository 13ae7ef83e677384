package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

func TestURLImageRepo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("\x89PNG"))
	}))
	defer srv.Close()

	images := NewURLImageRepo(zap.NewNop())

	data, err := images.FetchImage(context.Background(), domain.MessageRef{}, domain.Attachment{URL: srv.URL + "/a.png"})
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data)

	_, err = images.FetchImage(context.Background(), domain.MessageRef{}, domain.Attachment{URL: srv.URL + "/missing.png"})
	assert.Error(t, err)
}
