// Package storage resolves asset identifiers into playable streaming
// references and stores uploaded footage, either on the local data
// directory served by the HTTP layer or in S3.
package storage

import (
	"context"
	"strings"
)

// LocalResolver builds streaming references by the fixed convention
// <base URL>/<assetId>. Reachability is not checked.
type LocalResolver struct {
	BaseURL string
}

// NewLocalResolver creates a resolver over the video base URL.
func NewLocalResolver(baseURL string) LocalResolver {
	return LocalResolver{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Resolve returns the playable URL for an asset.
func (r LocalResolver) Resolve(_ context.Context, assetID string) (string, error) {
	return r.BaseURL + "/" + assetID, nil
}
