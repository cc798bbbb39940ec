// Package imaging normalises inline images and decodes the data URIs they
// are stored as.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height for stored images.
const MaxDimension = 1600

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MaxInlineBytes caps the decoded size of a submitted inline image.
const MaxInlineBytes = 10 << 20

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ErrNotDataURI is returned by DecodeDataURI for references that are not
// base64 data URIs.
var ErrNotDataURI = errors.New("not a base64 data URI")

// ProcessResult contains the processed image data.
type ProcessResult struct {
	Data []byte
	MIME string
}

// Process validates the format by sniffing bytes, downscales if larger
// than MaxDimension, and re-encodes as JPEG.
func Process(data []byte) (*ProcessResult, error) {
	// Sniff actual MIME type from bytes (not trusting the declared type).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &ProcessResult{
		Data: buf.Bytes(),
		MIME: "image/jpeg",
	}, nil
}

// IsRemote reports whether ref is an http(s) URL.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// DecodeDataURI splits a data:<mime>;base64,<payload> reference.
func DecodeDataURI(ref string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	mime, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	if mime == "" {
		mime = "application/octet-stream"
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URI payload: %w", err)
	}
	return mime, data, nil
}

// EncodeDataURI is the inverse of DecodeDataURI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Normalize processes an inline image reference into a JPEG data URI.
// Remote URLs and empty strings are returned unchanged.
func Normalize(ref string) (string, error) {
	if ref == "" || IsRemote(ref) {
		return ref, nil
	}

	_, data, err := DecodeDataURI(ref)
	if err != nil {
		return "", err
	}
	if len(data) > MaxInlineBytes {
		return "", fmt.Errorf("image exceeds %d bytes", MaxInlineBytes)
	}

	res, err := Process(data)
	if err != nil {
		return "", err
	}
	return EncodeDataURI(res.MIME, res.Data), nil
}

// NormalizeAll applies Normalize to every reference, in place.
func NormalizeAll(refs []string) error {
	for i, ref := range refs {
		out, err := Normalize(ref)
		if err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		refs[i] = out
	}
	return nil
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	// Preserve aspect ratio.
	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
