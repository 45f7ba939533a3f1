package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
)

// mirrorBundle best-effort mirrors a saved bundle to the configured S3
// bucket (spec.md 4.H expansion). It runs off the save's critical path —
// Save launches it in its own goroutine — and never blocks or fails a save:
// every error is logged and swallowed.
func (s *Store) mirrorBundle(kind string, b Bundle) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	puts := []struct {
		name string
		data []byte
	}{
		{validatorFile, []byte(b.ValidatorSource)},
		{interfaceFile, []byte(b.InterfaceSource)},
		{examplesFile, b.ExamplesJSON},
	}
	for _, p := range puts {
		key := mirrorKey(kind, p.name)
		if _, err := s.s3.PutObject(ctx, s.s3Bucket, key, bytes.NewReader(p.data), int64(len(p.data)), minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		}); err != nil {
			slog.Warn("store: s3 mirror failed", "kind", kind, "object", key, "error", err)
		}
	}
	if b.RawSample != nil {
		key := mirrorKey(kind, fmt.Sprintf("%s/%d.json", rawSamplesDir, time.Now().UnixMilli()))
		if _, err := s.s3.PutObject(ctx, s.s3Bucket, key, bytes.NewReader(b.RawSample), int64(len(b.RawSample)), minio.PutObjectOptions{
			ContentType: "application/json",
		}); err != nil {
			slog.Warn("store: s3 mirror raw sample failed", "kind", kind, "error", err)
		}
	}
}

func mirrorKey(kind, name string) string {
	return kind + "/" + name
}
