package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gocloud.dev/blob"
)

// maxDefaultWorkers caps the derived worker count; past this point the
// bottleneck is bucket egress, not CPU.
const maxDefaultWorkers = 16

// partialSuffix marks in-flight downloads so an interrupted run never
// leaves a destination file that passes the size check by accident.
const partialSuffix = ".partial"

// Options configures a mirror run. All state is passed in explicitly;
// the package reads no environment variables.
type Options struct {
	// Dest is the local destination root. The remote key structure is
	// reproduced below it with the listing prefix stripped.
	Dest string

	// Workers is the pool size. Zero means DefaultWorkers().
	Workers int

	// SkipExisting skips objects whose destination file already exists
	// with exactly matching size.
	SkipExisting bool

	// ChunkSize is the transfer read-buffer size. Zero uses io.Copy's
	// default buffer.
	ChunkSize int64

	// Retry bounds per-task retries. Zero value means DefaultRetry().
	Retry RetryPolicy

	// OnOutcome, when set, is called from the collecting goroutine for
	// every completed task. Completion order is arbitrary.
	OnOutcome func(Outcome)
}

// DefaultWorkers returns min(16, 4 x CPU count).
func DefaultWorkers() int {
	n := 4 * runtime.NumCPU()
	if n > maxDefaultWorkers {
		n = maxDefaultWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// List enumerates every object under prefix, materializing the full result
// so the caller knows the total count before dispatching. An empty slice
// with a nil error means there is nothing to do.
func List(ctx context.Context, bkt *blob.Bucket, prefix string) ([]Object, error) {
	var objects []Object
	iter := bkt.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, err)
		}
		objects = append(objects, Object{Key: obj.Key, Size: obj.Size})
	}
	return objects, nil
}

// Run mirrors the listed objects into opts.Dest using a fixed-size worker
// pool and blocks until every task has produced an outcome. Task failures
// are folded into the summary; they never abort sibling tasks.
func Run(ctx context.Context, bkt *blob.Bucket, prefix string, objects []Object, opts Options) Summary {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	retry := opts.Retry
	if retry == (RetryPolicy{}) {
		retry = DefaultRetry()
	}

	tasks := make([]Task, 0, len(objects))
	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, prefix)
		rel = strings.TrimLeft(rel, "/")
		tasks = append(tasks, Task{
			Object:       obj,
			RelPath:      rel,
			LocalPath:    filepath.Join(opts.Dest, filepath.FromSlash(rel)),
			SkipExisting: opts.SkipExisting,
			ChunkSize:    opts.ChunkSize,
		})
	}

	jobs := make(chan Task)
	results := make(chan Outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				results <- runTask(ctx, bkt, t, retry)
			}
		}()
	}

	// Queue eagerly in listing order; the pool size is the only
	// backpressure.
	go func() {
		for _, t := range tasks {
			jobs <- t
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var summary Summary
	for o := range results {
		summary.Add(o)
		if opts.OnOutcome != nil {
			opts.OnOutcome(o)
		}
	}
	return summary
}

// runTask executes one download task to completion, retry loop included.
func runTask(ctx context.Context, bkt *blob.Bucket, t Task, retry RetryPolicy) Outcome {
	o := Outcome{Object: t.Object, RelPath: t.RelPath}

	// Storage UIs create zero-byte "folder" objects whose keys end in the
	// separator. They are not transferable files.
	if strings.HasSuffix(t.Object.Key, "/") {
		o.Kind = DirMarker
		return o
	}

	if err := os.MkdirAll(filepath.Dir(t.LocalPath), 0o755); err != nil {
		o.Kind = Failed
		o.Err = fmt.Errorf("create directory: %w", err)
		return o
	}

	if t.SkipExisting && shouldSkip(t.LocalPath, t.Object.Size) {
		o.Kind = Skipped
		return o
	}

	err := retry.do(ctx, func() error {
		return transfer(ctx, bkt, t.Object.Key, t.LocalPath, t.ChunkSize)
	})
	if err != nil {
		o.Kind = Failed
		o.Err = err
		return o
	}

	o.Kind = Downloaded
	return o
}

// shouldSkip reports whether a regular file at path already has exactly the
// remote size. Stat errors mean "download it again": a size match is only
// an optimization, never a correctness check, so this stays best-effort.
func shouldSkip(path string, size int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() == size
}

// transfer copies one object to path, writing through a .partial file that
// is renamed into place only on success.
func transfer(ctx context.Context, bkt *blob.Bucket, key, path string, chunkSize int64) error {
	r, err := bkt.NewReader(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("open %s: %w", key, err)
	}
	defer r.Close()

	tmp := path + partialSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	var copyErr error
	if chunkSize > 0 {
		// Hide the reader's WriteTo so CopyBuffer actually uses our buffer.
		_, copyErr = io.CopyBuffer(f, struct{ io.Reader }{r}, make([]byte, chunkSize))
	} else {
		_, copyErr = io.Copy(f, r)
	}

	if cerr := f.Close(); copyErr == nil {
		copyErr = cerr
	}
	if copyErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("download %s: %w", key, copyErr)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}
