package storage

import (
	"fmt"
	"strings"
)

const s3Scheme = "s3://"

// S3URI is a parsed s3://bucket/key location
type S3URI struct {
	Bucket string
	Key    string
}

// IsS3URI checks if a path is an S3 URI
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3URI parses an object URI like s3://bucket/path/to/object
func ParseS3URI(uri string) (*S3URI, error) {
	if !IsS3URI(uri) {
		return nil, fmt.Errorf("invalid S3 URI %q: must start with s3://", uri)
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if bucket == "" {
		return nil, fmt.Errorf("invalid S3 URI %q: missing bucket name", uri)
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return nil, fmt.Errorf("invalid S3 URI %q: missing object key", uri)
	}
	return &S3URI{Bucket: bucket, Key: key}, nil
}

func (u *S3URI) String() string {
	return s3Scheme + u.Bucket + "/" + u.Key
}
