package bucket

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	_ "gocloud.dev/blob/memblob"

	"github.com/icpac-igad/cgan-fetch/internal/gcsurl"
)

func TestOpenRegisteredDriver(t *testing.T) {
	ctx := context.Background()

	loc, err := gcsurl.Parse("mem://bucket/some/prefix")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	bkt, err := Open(ctx, loc, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer bkt.Close()

	if err := bkt.WriteAll(ctx, "k", []byte("v"), nil); err != nil {
		t.Errorf("bucket not usable: %v", err)
	}
}

func TestOpenUnknownScheme(t *testing.T) {
	loc := gcsurl.Locator{Scheme: "bogus", Bucket: "b"}
	if _, err := Open(context.Background(), loc, ""); err == nil {
		t.Error("expected error for unregistered scheme")
	}
}

func TestOpenGCSMissingCredentialsFile(t *testing.T) {
	loc := gcsurl.Locator{Scheme: "gs", Bucket: "b"}
	_, err := Open(context.Background(), loc, filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Error("expected error for missing credentials file")
	}
}

func TestOpenGCSMalformedCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	loc := gcsurl.Locator{Scheme: "gs", Bucket: "b"}
	if _, err := Open(context.Background(), loc, path); err == nil {
		t.Error("expected error for malformed credentials file")
	}
}
