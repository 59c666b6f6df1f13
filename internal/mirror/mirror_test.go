package mirror

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

// testRetry keeps failing tasks from sleeping through real backoff.
func testRetry() RetryPolicy {
	return RetryPolicy{
		Initial:    time.Millisecond,
		Max:        4 * time.Millisecond,
		Deadline:   25 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func openTestBucket(t *testing.T, objects map[string][]byte) *blob.Bucket {
	t.Helper()
	ctx := context.Background()

	bkt, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bkt.Close() })

	for key, data := range objects {
		if err := bkt.WriteAll(ctx, key, data, nil); err != nil {
			t.Fatalf("write %s: %v", key, err)
		}
	}
	return bkt
}

func TestListMaterializesPrefix(t *testing.T) {
	bkt := openTestBucket(t, map[string][]byte{
		"a/file1.txt":     []byte("0123456789"),
		"a/sub/file2.txt": []byte("x"),
		"b/other.txt":     []byte("y"),
	})

	objects, err := List(context.Background(), bkt, "a/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("expected 2 objects under a/, got %d", len(objects))
	}
	for _, o := range objects {
		if o.Key == "a/file1.txt" && o.Size != 10 {
			t.Errorf("expected size 10 for a/file1.txt, got %d", o.Size)
		}
	}
}

func TestListEmptyPrefix(t *testing.T) {
	bkt := openTestBucket(t, map[string][]byte{"a/file1.txt": []byte("x")})

	objects, err := List(context.Background(), bkt, "nothing-here/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 0 {
		t.Fatalf("expected empty listing, got %d objects", len(objects))
	}
}

// The canonical three-object scenario: one fresh file, one already present
// with matching size, one directory marker.
func TestRunMixedOutcomes(t *testing.T) {
	bkt := openTestBucket(t, map[string][]byte{
		"a/file1.txt": []byte("0123456789"),          // 10 bytes, no local copy
		"a/file2.txt": []byte("01234567890123456789"), // 20 bytes, local copy exists
		"a/dir/":      nil,                            // marker
	})

	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "file2.txt"), bytes.Repeat([]byte("a"), 20), 0o644); err != nil {
		t.Fatalf("seed local file: %v", err)
	}

	ctx := context.Background()
	objects, err := List(ctx, bkt, "a/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 3 {
		t.Fatalf("expected 3 listed objects, got %d", len(objects))
	}

	var mu sync.Mutex
	kinds := make(map[string]Kind)

	summary := Run(ctx, bkt, "a/", objects, Options{
		Dest:         dest,
		Workers:      4,
		SkipExisting: true,
		Retry:        testRetry(),
		OnOutcome: func(o Outcome) {
			mu.Lock()
			kinds[o.Object.Key] = o.Kind
			mu.Unlock()
		},
	})

	if summary.Downloaded != 1 || summary.Skipped != 1 || summary.DirMarkers != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 1 downloaded / 1 skipped / 1 dir-marker / 0 failed", summary)
	}
	if summary.Total != 3 {
		t.Errorf("total = %d, want 3", summary.Total)
	}
	if kinds["a/file1.txt"] != Downloaded {
		t.Errorf("a/file1.txt = %v, want downloaded", kinds["a/file1.txt"])
	}
	if kinds["a/file2.txt"] != Skipped {
		t.Errorf("a/file2.txt = %v, want skipped", kinds["a/file2.txt"])
	}
	if kinds["a/dir/"] != DirMarker {
		t.Errorf("a/dir/ = %v, want dir-marker", kinds["a/dir/"])
	}

	got, err := os.ReadFile(filepath.Join(dest, "file1.txt"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(got) != "0123456789" {
		t.Errorf("downloaded content = %q, want %q", got, "0123456789")
	}
}

func TestRunSecondPassIsAllSkips(t *testing.T) {
	content := map[string][]byte{
		"data/2018/f1.nc":     bytes.Repeat([]byte("n"), 1000),
		"data/2018/sub/f2.nc": bytes.Repeat([]byte("m"), 500),
		"data/2018/f3.nc":     []byte("tiny"),
	}
	bkt := openTestBucket(t, content)
	dest := t.TempDir()
	ctx := context.Background()

	objects, err := List(ctx, bkt, "data/2018/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	opts := Options{Dest: dest, Workers: 2, SkipExisting: true, Retry: testRetry()}

	first := Run(ctx, bkt, "data/2018/", objects, opts)
	if first.Downloaded != 3 || first.Failed != 0 {
		t.Fatalf("first run summary = %+v, want 3 downloaded", first)
	}

	second := Run(ctx, bkt, "data/2018/", objects, opts)
	if second.Downloaded != 0 {
		t.Errorf("second run downloaded %d objects, want 0", second.Downloaded)
	}
	if second.Skipped != 3 {
		t.Errorf("second run skipped %d objects, want 3", second.Skipped)
	}
}

func TestRunDirMarkerIgnoresSkipFlag(t *testing.T) {
	bkt := openTestBucket(t, map[string][]byte{"a/dir/": nil})
	ctx := context.Background()

	objects, err := List(ctx, bkt, "a/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	for _, skip := range []bool{false, true} {
		summary := Run(ctx, bkt, "a/", objects, Options{
			Dest:         t.TempDir(),
			Workers:      1,
			SkipExisting: skip,
			Retry:        testRetry(),
		})
		if summary.DirMarkers != 1 || summary.Downloaded != 0 {
			t.Errorf("skip=%v: summary = %+v, want only a dir-marker", skip, summary)
		}
	}
}

func TestRunFailureIsIsolated(t *testing.T) {
	bkt := openTestBucket(t, map[string][]byte{
		"a/good1.txt": []byte("one"),
		"a/good2.txt": []byte("two"),
	})
	ctx := context.Background()

	objects, err := List(ctx, bkt, "a/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// An object deleted between listing and download.
	objects = append(objects, Object{Key: "a/vanished.txt", Size: 5})

	summary := Run(ctx, bkt, "a/", objects, Options{
		Dest:    t.TempDir(),
		Workers: 3,
		Retry:   testRetry(),
	})

	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
	if summary.Downloaded != 2 {
		t.Errorf("downloaded = %d, want 2 despite the failure", summary.Downloaded)
	}
	if sum := summary.Downloaded + summary.Skipped + summary.DirMarkers + summary.Failed; sum != summary.Total {
		t.Errorf("outcome counts sum to %d, total is %d", sum, summary.Total)
	}
}

func TestRunChunkedTransfer(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 4096) // 32 KiB
	bkt := openTestBucket(t, map[string][]byte{"big/blob.bin": data})
	dest := t.TempDir()
	ctx := context.Background()

	objects, err := List(ctx, bkt, "big/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	summary := Run(ctx, bkt, "big/", objects, Options{
		Dest:      dest,
		Workers:   1,
		ChunkSize: 1024,
		Retry:     testRetry(),
	})
	if !summary.Ok() || summary.Downloaded != 1 {
		t.Fatalf("summary = %+v, want one clean download", summary)
	}

	got, err := os.ReadFile(filepath.Join(dest, "blob.bin"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("chunked download corrupted data: got %d bytes, want %d", len(got), len(data))
	}
}

func TestRunCreatesNestedDirectories(t *testing.T) {
	bkt := openTestBucket(t, map[string][]byte{
		"p/x/y/z/deep.txt": []byte("deep"),
	})
	dest := t.TempDir()
	ctx := context.Background()

	objects, err := List(ctx, bkt, "p/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	summary := Run(ctx, bkt, "p/", objects, Options{Dest: dest, Workers: 1, Retry: testRetry()})
	if !summary.Ok() {
		t.Fatalf("summary = %+v", summary)
	}

	if _, err := os.Stat(filepath.Join(dest, "x", "y", "z", "deep.txt")); err != nil {
		t.Errorf("nested destination missing: %v", err)
	}
}

func TestShouldSkip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name string
		path string
		size int64
		want bool
	}{
		{"matching size", path, 10, true},
		{"size mismatch", path, 11, false},
		{"remote empty, local present", path, 0, false},
		{"missing file", filepath.Join(dir, "absent.bin"), 0, false},
		{"directory, not file", dir, 10, false},
	}

	for _, tt := range tests {
		if got := shouldSkip(tt.path, tt.size); got != tt.want {
			t.Errorf("%s: shouldSkip = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSummaryMerge(t *testing.T) {
	a := Summary{Downloaded: 2, Skipped: 1, Total: 3, Bytes: 100}
	b := Summary{Downloaded: 1, Failed: 1, DirMarkers: 1, Total: 3, Bytes: 50}

	a.Merge(b)

	if a.Downloaded != 3 || a.Skipped != 1 || a.Failed != 1 || a.DirMarkers != 1 {
		t.Errorf("merged counts wrong: %+v", a)
	}
	if a.Total != 6 || a.Bytes != 150 {
		t.Errorf("merged totals wrong: %+v", a)
	}
	if a.Ok() {
		t.Error("merged summary with a failure should not be Ok")
	}
}
