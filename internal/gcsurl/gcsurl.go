// Package gcsurl parses object-storage locators of the form
// scheme://bucket/optional/prefix into their bucket and key-prefix parts.
package gcsurl

import (
	"fmt"
	"strings"
)

// Locator identifies a bucket and an optional key prefix within it.
type Locator struct {
	Scheme string
	Bucket string

	// Prefix is the normalized key prefix: no leading separator and,
	// when non-empty, exactly one trailing separator.
	Prefix string
}

// Parse splits a locator like gs://bucket/path/to/prefix into its parts.
// The prefix is normalized to end with a single '/' (empty stays empty).
func Parse(locator string) (Locator, error) {
	scheme, rest, ok := strings.Cut(locator, "://")
	if !ok || scheme == "" {
		return Locator{}, fmt.Errorf("gcsurl: locator %q must start with a scheme like gs://", locator)
	}

	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Locator{}, fmt.Errorf("gcsurl: locator %q has no bucket name", locator)
	}

	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return Locator{Scheme: scheme, Bucket: bucket, Prefix: prefix}, nil
}

// BucketURL returns the locator without the key prefix, in the form
// accepted by blob.OpenBucket.
func (l Locator) BucketURL() string {
	return l.Scheme + "://" + l.Bucket
}

func (l Locator) String() string {
	return l.BucketURL() + "/" + l.Prefix
}
