package app

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
)

const gzSuffix = ".gz"

// Stager implements spec.md section 4.3: directional transfer of
// artifacts between the Object Store and a Workspace's store/
// subtree, keyed by the activity's Uid.
type Stager struct {
	Store ports.ObjectStore
	Gzip  bool
}

func NewStager(store ports.ObjectStore, gzip bool) *Stager {
	return &Stager{Store: store, Gzip: gzip}
}

// StageIn lists every key under uid, materializing each blob under
// ws.StoreInput. In gzip mode keys are expected to end in ".gz"; the
// suffix is stripped and the payload decompressed before it is
// written.
func (s *Stager) StageIn(ctx context.Context, uid domain.Uid, ws Workspace) error {
	keys, err := s.Store.ListKeys(ctx, uid)
	if err != nil {
		return err
	}
	sort.Strings(keys)

	for _, key := range keys {
		data, err := s.Store.Get(ctx, uid, key)
		if err != nil {
			return err
		}

		relKey := key
		if s.Gzip {
			relKey = strings.TrimSuffix(key, gzSuffix)
			data, err = gunzip(data)
			if err != nil {
				return err
			}
		}

		dest := filepath.Join(ws.StoreInput, filepath.FromSlash(relKey))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// StageOut walks ws.StoreOutput depth-first for regular files,
// computes (key, sha256, length, bytes) for each, and uploads them to
// the Object Store under uid in discovered order. An empty output
// tree uploads zero artifacts without error.
func (s *Stager) StageOut(ctx context.Context, uid domain.Uid, ws Workspace) ([]domain.Artifact, error) {
	var artifacts []domain.Artifact

	err := filepath.WalkDir(ws.StoreOutput, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(ws.StoreOutput, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		sum := sha256.Sum256(raw)
		artifact := domain.Artifact{
			Key:    rel,
			Hash:   hex.EncodeToString(sum[:]),
			Length: int64(len(raw)),
			Bytes:  raw,
		}
		artifacts = append(artifacts, artifact)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range artifacts {
		key := a.Key
		payload := a.Bytes
		if s.Gzip {
			key += gzSuffix
			payload, err = gzipBytes(payload)
			if err != nil {
				return nil, err
			}
		}
		if err := s.Store.Put(ctx, uid, key, payload); err != nil {
			return nil, err
		}
	}
	return artifacts, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
