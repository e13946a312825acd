package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Artifact is an observation of a pipeline file at a point in time.
//
// The driver never interprets artifact contents; the digest exists so that
// repeated runs can be compared.
type Artifact struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Size   int64  `json:"size,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
}

// InspectArtifact stats and hashes the file at path.
// A missing file is not an error; it yields Exists == false.
func InspectArtifact(path string) (Artifact, error) {
	a := Artifact{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return a, nil
		}
		return a, fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		return a, fmt.Errorf("artifact %q is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return a, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return a, fmt.Errorf("hash %q: %w", path, err)
	}

	a.Exists = true
	a.Size = n
	a.SHA256 = hex.EncodeToString(h.Sum(nil))
	return a, nil
}
