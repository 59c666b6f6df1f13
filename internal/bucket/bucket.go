// Package bucket opens gocloud blob buckets from storage locators.
//
// A gs:// locator combined with a service-account key file gets an
// authenticated GCS client built from that key. Every other combination
// (gs:// with ambient credentials, s3://, file://, mem://) goes through the
// URL opener for whichever driver the caller has registered.
package bucket

import (
	"context"
	"fmt"
	"os"

	"gocloud.dev/blob"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/gcp"
	"golang.org/x/oauth2/google"

	"github.com/icpac-igad/cgan-fetch/internal/gcsurl"
)

// Scope for reading bucket contents. Mirroring never writes to the store.
const readScope = "https://www.googleapis.com/auth/devstorage.read_only"

// Open opens the bucket named by loc. credsFile may be empty, in which case
// the environment's default credentials apply.
func Open(ctx context.Context, loc gcsurl.Locator, credsFile string) (*blob.Bucket, error) {
	if loc.Scheme == "gs" && credsFile != "" {
		return openGCS(ctx, loc.Bucket, credsFile)
	}
	b, err := blob.OpenBucket(ctx, loc.BucketURL())
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", loc.BucketURL(), err)
	}
	return b, nil
}

func openGCS(ctx context.Context, name, credsFile string) (*blob.Bucket, error) {
	data, err := os.ReadFile(credsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, readScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", credsFile, err)
	}

	client, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	b, err := gcsblob.OpenBucket(ctx, client, name, nil)
	if err != nil {
		return nil, fmt.Errorf("open bucket gs://%s: %w", name, err)
	}
	return b, nil
}
