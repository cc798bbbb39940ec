package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"slices"
	"time"

	"github.com/erazemk/estatedesk/internal/imaging"
)

// serveImage writes a stored image reference: inline data is decoded and
// served with caching headers, remote URLs are redirected to.
func serveImage(w http.ResponseWriter, r *http.Request, ref string) {
	if imaging.IsRemote(ref) {
		http.Redirect(w, r, ref, http.StatusFound)
		return
	}

	mime, data, err := imaging.DecodeDataURI(ref)
	if err != nil {
		notFound(w, "image")
		return
	}

	sum := sha256.Sum256(data)
	w.Header().Set("ETag", `"`+hex.EncodeToString(sum[:16])+`"`)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Type", mime)
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(data))
}

// normalizeNew normalises the references in after that were not already
// stored in before. Stored images were normalised when first submitted.
func normalizeNew(before, after []string) error {
	for i, ref := range after {
		if slices.Contains(before, ref) {
			continue
		}
		out, err := imaging.Normalize(ref)
		if err != nil {
			return &imageError{index: i, err: err}
		}
		after[i] = out
	}
	return nil
}

// normalizeOne is normalizeNew for single-image fields.
func normalizeOne(before string, after *string) error {
	if *after == before {
		return nil
	}
	out, err := imaging.Normalize(*after)
	if err != nil {
		return &imageError{index: -1, err: err}
	}
	*after = out
	return nil
}
