package product

import (
	"path"
	"strings"
)

// PlaceholderImage is served for products without a usable image.
const PlaceholderImage = "/placeholder.svg"

const bundledAssetsPrefix = "/src/assets/"

// ResolveImageURL turns a stored image reference into a URL a client can load.
// Data URLs and absolute http(s) URLs are returned unchanged. Bundled asset
// paths and bare file names are served from base. Other absolute paths are
// returned unchanged; anything else resolves to the placeholder.
func ResolveImageURL(base, raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return PlaceholderImage
	}

	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") {
		return v
	}

	if strings.HasPrefix(v, bundledAssetsPrefix) || !strings.Contains(v, "/") {
		name := path.Base(v)
		if base == "" {
			return "/" + name
		}
		return strings.TrimRight(base, "/") + "/" + name
	}

	if strings.HasPrefix(v, "/") {
		return v
	}
	return PlaceholderImage
}

// NormalizeImageInput shrinks bundled asset paths to their basename before
// they are stored.
func NormalizeImageInput(raw string) string {
	v := strings.TrimSpace(raw)
	if strings.HasPrefix(v, bundledAssetsPrefix) {
		return path.Base(v)
	}
	return v
}
