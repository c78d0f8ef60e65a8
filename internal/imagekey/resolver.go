package imagekey

import (
	"net/url"
	"strings"
)

// ProxyPath is the image proxy endpoint; references of the form
// ProxyPath?key={key} resolve to {key}.
const ProxyPath = "/api/images/get"

const awsHostSuffix = ".amazonaws.com"

// Resolver converts between storage keys and the URLs stored on listings.
type Resolver struct {
	Bucket string
	Region string
}

// NewResolver returns a resolver for one bucket.
func NewResolver(bucket, region string) Resolver {
	return Resolver{Bucket: bucket, Region: region}
}

// URL builds the canonical public URL for key:
// https://{bucket}.s3.{region}.amazonaws.com/{key}. The region segment is
// omitted when the resolver has no region.
func (r Resolver) URL(key string) string {
	host := r.Bucket + ".s3.amazonaws.com"
	if r.Region != "" {
		host = r.Bucket + ".s3." + r.Region + ".amazonaws.com"
	}
	return buildURL(host, trimKey(key))
}

// VirtualHostedURL builds https://{bucket}.s3.amazonaws.com/{key}.
func (r Resolver) VirtualHostedURL(key string) string {
	return buildURL(r.Bucket+".s3.amazonaws.com", trimKey(key))
}

// PathStyleURL builds https://s3.{region}.amazonaws.com/{bucket}/{key}.
func (r Resolver) PathStyleURL(key string) string {
	host := "s3.amazonaws.com"
	if r.Region != "" {
		host = "s3." + r.Region + ".amazonaws.com"
	}
	return buildURL(host, r.Bucket+"/"+trimKey(key))
}

// ProxyURL builds the relative proxy reference for key.
func ProxyURL(key string) string {
	return ProxyPath + "?key=" + url.QueryEscape(trimKey(key))
}

// Extract returns the storage key that ref points at. It understands
// virtual-hosted and path-style S3 URLs, proxy references and bare keys.
// ok is false when ref matches none of these; callers treat such a ref as
// an opaque external value.
func (r Resolver) Extract(ref string) (key string, ok bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	if u.Path == ProxyPath {
		return nonEmpty(trimKey(u.Query().Get("key")))
	}

	if u.Scheme == "" && u.Host == "" {
		if u.RawQuery != "" || u.Fragment != "" || u.Opaque != "" {
			return "", false
		}
		return nonEmpty(trimKey(ref))
	}

	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, awsHostSuffix) {
		return "", false
	}
	path := trimKey(u.Path)

	switch {
	case strings.HasPrefix(host, "s3.") || strings.HasPrefix(host, "s3-"):
		// path style: /{bucket}/{key}
		_, rest, found := strings.Cut(path, "/")
		if !found {
			return "", false
		}
		return nonEmpty(trimKey(rest))
	case strings.Contains(host, ".s3.") || strings.Contains(host, ".s3-"):
		if r.Bucket != "" {
			path = strings.TrimPrefix(path, r.Bucket+"/")
		}
		return nonEmpty(path)
	default:
		return "", false
	}
}

// ExtractKey is Extract followed by Parse.
func (r Resolver) ExtractKey(ref string) (Key, bool) {
	raw, ok := r.Extract(ref)
	if !ok {
		return Key{}, false
	}
	return Parse(raw), true
}

func buildURL(host, path string) string {
	u := url.URL{Scheme: "https", Host: host, Path: "/" + path}
	return u.String()
}

func trimKey(key string) string {
	return strings.TrimLeft(key, "/")
}

func nonEmpty(key string) (string, bool) {
	return key, key != ""
}
