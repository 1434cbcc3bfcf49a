package artifacts

import (
	"fmt"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// ScanRegistryImage streams layers of a remote image without pulling the
// image to disk, authenticating with the local Docker credentials when
// present. Findings get virtual paths like
// "gcr.io/proj/app:latest::sha256:<digest>/etc/app.env".
func ScanRegistryImage(imageRef string, limits Limits, emit func(path string, data []byte), stats *Stats) error {
	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return fmt.Errorf("invalid image reference %q: %w", imageRef, err)
	}

	// Fetches the manifest only; layer blobs are pulled lazily below.
	img, err := remote.Image(ref, remote.WithAuthFromKeychain(authn.DefaultKeychain))
	if err != nil {
		return fmt.Errorf("failed to fetch image metadata for %q: %w", imageRef, err)
	}

	layers, err := img.Layers()
	if err != nil {
		return fmt.Errorf("failed to list layers for %q: %w", imageRef, err)
	}

	bud := newBudget(limits, stats)
	for _, layer := range layers {
		if bud.exhausted(0) {
			return nil
		}

		digest, err := layer.Digest()
		if err != nil {
			continue
		}

		rc, err := layer.Uncompressed()
		if err != nil {
			return fmt.Errorf("failed to read layer %s of %q: %w", digest, imageRef, err)
		}

		vp := fmt.Sprintf("%s::%s", imageRef, digest.String())
		scanTarReaderJoin(vp, "/", bud, 1, emit, rc)
		safeClose(rc)
	}

	return nil
}
