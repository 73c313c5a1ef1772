package artifact

import (
	"bytes"
	"context"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdStore wraps a Store with transparent zstd compression. Artifacts are
// compressed on Put and decompressed on Open; names are stored with a
// ".zst" suffix so compressed and plain artifacts can share a backend.
type ZstdStore struct {
	inner Store
}

// NewZstdStore wraps inner with zstd compression.
func NewZstdStore(inner Store) *ZstdStore {
	return &ZstdStore{inner: inner}
}

func (z *ZstdStore) key(name string) string {
	return name + ".zst"
}

// Open opens and decompresses an artifact.
func (z *ZstdStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := z.inner.Open(ctx, z.key(name))
	if err != nil {
		return nil, err
	}
	zr, err := zstd.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return &zstdReadCloser{zr: zr, rc: rc}, nil
}

// Put compresses and writes an artifact.
func (z *ZstdStore) Put(ctx context.Context, name string, data []byte) error {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return z.inner.Put(ctx, z.key(name), buf.Bytes())
}

// Exists reports whether the compressed artifact exists.
func (z *ZstdStore) Exists(ctx context.Context, name string) (bool, error) {
	return z.inner.Exists(ctx, z.key(name))
}

type zstdReadCloser struct {
	zr *zstd.Decoder
	rc io.ReadCloser
}

func (c *zstdReadCloser) Read(p []byte) (int, error) {
	return c.zr.Read(p)
}

func (c *zstdReadCloser) Close() error {
	c.zr.Close()
	return c.rc.Close()
}
