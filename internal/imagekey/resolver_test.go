package imagekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_Extract(t *testing.T) {
	r := NewResolver("autodealer-images", "eu-north-1")

	tests := []struct {
		name string
		ref  string
		want string
		ok   bool
	}{
		{name: "virtual hosted", ref: "https://autodealer-images.s3.eu-north-1.amazonaws.com/cars/temp_b1/a.jpg", want: "cars/temp_b1/a.jpg", ok: true},
		{name: "virtual hosted without region", ref: "https://autodealer-images.s3.amazonaws.com/cars/car9/b.jpg", want: "cars/car9/b.jpg", ok: true},
		{name: "virtual hosted repeating bucket", ref: "https://autodealer-images.s3.amazonaws.com/autodealer-images/cars/car9/b.jpg", want: "cars/car9/b.jpg", ok: true},
		{name: "path style", ref: "https://s3.eu-north-1.amazonaws.com/autodealer-images/cars/car9/b.jpg", want: "cars/car9/b.jpg", ok: true},
		{name: "path style global", ref: "https://s3.amazonaws.com/autodealer-images/cars/car9/b.jpg", want: "cars/car9/b.jpg", ok: true},
		{name: "path style bucket only", ref: "https://s3.eu-north-1.amazonaws.com/autodealer-images", ok: false},
		{name: "escaped path", ref: "https://autodealer-images.s3.amazonaws.com/cars/car9/my%20car.jpg", want: "cars/car9/my car.jpg", ok: true},
		{name: "signed url", ref: "https://autodealer-images.s3.eu-north-1.amazonaws.com/cars/car9/b.jpg?X-Amz-Expires=86400", want: "cars/car9/b.jpg", ok: true},
		{name: "proxy relative", ref: "/api/images/get?key=cars%2Ftemp_b1%2Fa.jpg", want: "cars/temp_b1/a.jpg", ok: true},
		{name: "proxy absolute", ref: "https://dealer.example.com/api/images/get?key=%2Fcars%2Fcar1%2Fa.jpg", want: "cars/car1/a.jpg", ok: true},
		{name: "proxy without key", ref: "/api/images/get", ok: false},
		{name: "bare key", ref: "cars/temp_b1/a.jpg", want: "cars/temp_b1/a.jpg", ok: true},
		{name: "bare key leading slash", ref: "/cars/car1/a.jpg", want: "cars/car1/a.jpg", ok: true},
		{name: "foreign host", ref: "https://cdn.example.com/cars/temp_b1/a.jpg", ok: false},
		{name: "non s3 aws host", ref: "https://ec2.amazonaws.com/cars/a.jpg", ok: false},
		{name: "empty", ref: "   ", ok: false},
		{name: "relative with query", ref: "/placeholder.jpg?v=2", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Extract(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_RoundTrip(t *testing.T) {
	r := NewResolver("autodealer-images", "eu-north-1")
	keys := []string{
		"cars/temp_b1/a.jpg",
		"cars/car42/photo_1712345678_ab12cd.webp",
		"parts/p1/rear bumper.png",
		"cars/car42/plus+sign&amp.jpg",
	}
	builders := map[string]func(string) string{
		"canonical":      r.URL,
		"virtual hosted": r.VirtualHostedURL,
		"path style":     r.PathStyleURL,
		"proxy":          ProxyURL,
	}

	for name, build := range builders {
		for _, key := range keys {
			got, ok := r.Extract(build(key))
			assert.True(t, ok, "%s: %s", name, key)
			assert.Equal(t, key, got, "%s: %s", name, key)
		}
	}
}

func TestResolver_URL(t *testing.T) {
	assert.Equal(t,
		"https://autodealer-images.s3.eu-north-1.amazonaws.com/cars/car42/a.jpg",
		NewResolver("autodealer-images", "eu-north-1").URL("cars/car42/a.jpg"))
	assert.Equal(t,
		"https://bucket.s3.amazonaws.com/cars/car42/a.jpg",
		NewResolver("bucket", "").URL("/cars/car42/a.jpg"))
}

func TestResolver_ExtractKey(t *testing.T) {
	r := NewResolver("bucket", "")

	k, ok := r.ExtractKey("https://bucket.s3.amazonaws.com/cars/temp_b1/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, KindStaged, k.Kind)
	assert.Equal(t, "b1", k.BatchID)

	_, ok = r.ExtractKey("https://images.example.org/a.jpg")
	assert.False(t, ok)
}
