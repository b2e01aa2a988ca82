// Package digest computes SHA-256 content digests by streaming input through
// a fixed-size buffer so memory use does not depend on file size.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"modsuite/internal/services"
)

// ChunkSize is the buffer size used when streaming content.
const ChunkSize = 1 << 20

// EmptySHA256 is the digest of zero bytes.
const EmptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// Reader hashes r to completion and returns the hex digest and byte count.
func Reader(r io.Reader) (string, int64, error) {
	return ReaderChunked(r, ChunkSize)
}

// ReaderChunked hashes r using a buffer of the given size.
func ReaderChunked(r io.Reader, size int) (string, int64, error) {
	if size <= 0 {
		size = ChunkSize
	}
	h := sha256.New()
	buf := make([]byte, size)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", total, fmt.Errorf("read content: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), total, nil
}

// File hashes the file at path, opened read-only.
func File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, services.Wrap(services.ErrIOFailure, "digest", "open", path, err)
	}
	defer f.Close()

	sum, size, err := Reader(f)
	if err != nil {
		return "", 0, services.Wrap(services.ErrIOFailure, "digest", "read", path, err)
	}
	return sum, size, nil
}

// Exists reports whether path names a regular, readable file.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
