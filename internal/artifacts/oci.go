package artifacts

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OCIManifest represents an OCI image manifest.
type OCIManifest struct {
	SchemaVersion int               `json:"schemaVersion"`
	MediaType     string            `json:"mediaType"`
	Config        OCIDescriptor     `json:"config"`
	Layers        []OCIDescriptor   `json:"layers"`
	Annotations   map[string]string `json:"annotations,omitempty"`
}

// OCIDescriptor describes a content addressable blob.
type OCIDescriptor struct {
	MediaType   string            `json:"mediaType"`
	Digest      string            `json:"digest"`
	Size        int64             `json:"size"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// OCIIndex represents an OCI image index (multi-arch images).
type OCIIndex struct {
	SchemaVersion int               `json:"schemaVersion"`
	MediaType     string            `json:"mediaType"`
	Manifests     []OCIDescriptor   `json:"manifests"`
	Annotations   map[string]string `json:"annotations,omitempty"`
}

// OCIConfig represents the image configuration blob.
type OCIConfig struct {
	Created      time.Time      `json:"created"`
	Architecture string         `json:"architecture"`
	OS           string         `json:"os"`
	Config       OCIImageConfig `json:"config"`
	RootFS       OCIRootFS      `json:"rootfs"`
	History      []OCIHistory   `json:"history"`
}

// OCIImageConfig contains image runtime configuration.
type OCIImageConfig struct {
	User         string              `json:"User,omitempty"`
	ExposedPorts map[string]struct{} `json:"ExposedPorts,omitempty"`
	Env          []string            `json:"Env,omitempty"`
	Entrypoint   []string            `json:"Entrypoint,omitempty"`
	Cmd          []string            `json:"Cmd,omitempty"`
	Volumes      map[string]struct{} `json:"Volumes,omitempty"`
	WorkingDir   string              `json:"WorkingDir,omitempty"`
	Labels       map[string]string   `json:"Labels,omitempty"`
}

// OCIRootFS describes the root filesystem.
type OCIRootFS struct {
	Type    string   `json:"type"`
	DiffIDs []string `json:"diff_ids"`
}

// OCIHistory records how one layer was created.
type OCIHistory struct {
	Created    time.Time `json:"created"`
	CreatedBy  string    `json:"created_by"`
	Author     string    `json:"author,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	EmptyLayer bool      `json:"empty_layer,omitempty"`
}

// LayerContext ties a layer blob back to the build step that produced it.
type LayerContext struct {
	Digest       string
	Index        int
	TotalLayers  int
	Size         int64
	CreatedBy    string
	Created      time.Time
	ParentDigest string
	Architecture string
	OS           string
}

// ParseOCIManifest reads and parses an OCI image manifest from a file.
func ParseOCIManifest(path string) (*OCIManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest OCIManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}

	if manifest.SchemaVersion != 2 {
		return nil, fmt.Errorf("unsupported schema version: %d", manifest.SchemaVersion)
	}

	return &manifest, nil
}

// ParseOCIIndex reads and parses an OCI image index from a file.
func ParseOCIIndex(path string) (*OCIIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var index OCIIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index JSON: %w", err)
	}

	return &index, nil
}

// ParseOCIConfig reads and parses an OCI image config from a file.
func ParseOCIConfig(path string) (*OCIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config OCIConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &config, nil
}

// IsOCIImage checks if a directory contains an OCI image layout.
func IsOCIImage(dir string) bool {
	layoutPath := filepath.Join(dir, "oci-layout")
	if _, err := os.Stat(layoutPath); err == nil {
		return true
	}

	indexPath := filepath.Join(dir, "index.json")
	if _, err := os.Stat(indexPath); err == nil {
		return true
	}

	return false
}

// BuildLayerContext extracts build provenance from an image config for a
// specific layer. History includes empty layers, so non-empty entries are
// counted to line history up with diff IDs.
func BuildLayerContext(config *OCIConfig, layerIndex int, layerDigest string, layerSize int64) LayerContext {
	ctx := LayerContext{
		Digest:       layerDigest,
		Index:        layerIndex,
		TotalLayers:  len(config.RootFS.DiffIDs),
		Size:         layerSize,
		Architecture: config.Architecture,
		OS:           config.OS,
	}

	if layerIndex >= 0 && layerIndex < len(config.History) {
		historyIndex := 0
		for i, h := range config.History {
			if !h.EmptyLayer {
				if historyIndex == layerIndex {
					ctx.CreatedBy = h.CreatedBy
					ctx.Created = h.Created
					break
				}
				historyIndex++
			} else if i == layerIndex {
				ctx.CreatedBy = h.CreatedBy
				ctx.Created = h.Created
				break
			}
		}
	}

	if layerIndex > 0 && layerIndex <= len(config.RootFS.DiffIDs) {
		ctx.ParentDigest = config.RootFS.DiffIDs[layerIndex-1]
	}

	return ctx
}

// DetectManifestFormat determines if a manifest file is Docker or OCI
// format.
func DetectManifestFormat(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var generic struct {
		MediaType     string `json:"mediaType"`
		SchemaVersion int    `json:"schemaVersion"`
	}

	if err := json.Unmarshal(data, &generic); err != nil {
		return "", fmt.Errorf("failed to parse manifest: %w", err)
	}

	switch generic.MediaType {
	case "application/vnd.oci.image.manifest.v1+json":
		return "oci", nil
	case "application/vnd.oci.image.index.v1+json":
		return "oci-index", nil
	case "application/vnd.docker.distribution.manifest.v2+json":
		return "docker-v2", nil
	case "application/vnd.docker.distribution.manifest.list.v2+json":
		return "docker-manifest-list", nil
	}

	if generic.SchemaVersion == 2 {
		return "docker-v2", nil
	}

	return "unknown", nil
}

// scanOCILayout walks an OCI image layout directory (index.json plus
// blobs/<algo>/<hex>) and emits layer contents, per-layer build history,
// and config env blocks.
func scanOCILayout(dir, rel string, bud *budget, emit emitFunc) {
	index, err := ParseOCIIndex(filepath.Join(dir, "index.json"))
	if err != nil {
		return
	}
	for _, desc := range index.Manifests {
		if bud.exhausted(0) {
			return
		}
		p, ok := blobPath(dir, desc.Digest)
		if !ok {
			continue
		}
		format, err := DetectManifestFormat(p)
		if err != nil {
			continue
		}
		if format == "oci-index" || format == "docker-manifest-list" {
			nested, err := ParseOCIIndex(p)
			if err != nil {
				continue
			}
			for _, nm := range nested.Manifests {
				if np, ok := blobPath(dir, nm.Digest); ok {
					scanOCIManifest(dir, rel, np, bud, emit)
				}
			}
			continue
		}
		scanOCIManifest(dir, rel, p, bud, emit)
	}
}

// scanOCIManifest scans every layer referenced by one image manifest.
// Build steps are emitted as "<rel>::<digest>/.created_by" so leaked
// build args surface attributed to the layer that introduced them.
func scanOCIManifest(dir, rel, manifestPath string, bud *budget, emit emitFunc) {
	manifest, err := ParseOCIManifest(manifestPath)
	if err != nil {
		return
	}

	var config *OCIConfig
	if p, ok := blobPath(dir, manifest.Config.Digest); ok {
		config, _ = ParseOCIConfig(p)
	}
	if config != nil && len(config.Config.Env) > 0 {
		emit(rel+"::"+manifest.Config.Digest+"/.env", []byte(strings.Join(config.Config.Env, "\n")))
		bud.entries++
	}

	for i, layer := range manifest.Layers {
		if bud.exhausted(0) {
			return
		}
		vp := rel + "::" + layer.Digest
		if config != nil {
			lc := BuildLayerContext(config, i, layer.Digest, layer.Size)
			if lc.CreatedBy != "" {
				emit(vp+"/.created_by", []byte(lc.CreatedBy))
				bud.entries++
			}
		}
		if p, ok := blobPath(dir, layer.Digest); ok {
			scanLayerBlob(vp, p, bud, emit)
		}
	}
}

// scanLayerBlob streams one layer blob as a tar, sniffing for gzip since
// media types are not always trustworthy.
func scanLayerBlob(vp, path string, bud *budget, emit emitFunc) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer safeClose(f)
	br := bufio.NewReader(f)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return
		}
		defer safeClose(gz)
		scanTarReaderJoin(vp, "/", bud, 1, emit, gz)
		return
	}
	scanTarReaderJoin(vp, "/", bud, 1, emit, br)
}

// blobPath resolves a digest like "sha256:abc" to blobs/sha256/abc under
// an OCI layout directory.
func blobPath(dir, digest string) (string, bool) {
	algo, hex, ok := strings.Cut(digest, ":")
	if !ok || algo == "" || hex == "" {
		return "", false
	}
	p := filepath.Join(dir, "blobs", algo, hex)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}
