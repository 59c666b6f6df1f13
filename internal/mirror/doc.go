// Package mirror copies every object under a bucket prefix to local disk.
//
// A run has three phases: list the prefix (the full listing is materialized
// so totals are known up front), fan the objects out across a fixed-size
// worker pool, and fold the per-object outcomes into a Summary.
//
// # Usage
//
//	objects, err := mirror.List(ctx, bkt, "2018/")
//	if err != nil {
//	    // listing failures abort the whole run
//	}
//	summary := mirror.Run(ctx, bkt, "2018/", objects, mirror.Options{
//	    Dest:         "/mnt/training-data/2018",
//	    SkipExisting: true,
//	})
//
// # Failure isolation
//
// A single object failing its transfer (after the bounded retry deadline)
// produces a Failed outcome and nothing else: sibling tasks keep running
// and the pool drains normally. Only the listing call itself is fatal.
package mirror
