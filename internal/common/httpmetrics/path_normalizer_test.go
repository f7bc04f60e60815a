package httpmetrics

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty", path: "", want: "/"},
		{name: "static", path: "/api/stream/global", want: "/api/stream/global"},
		{name: "username", path: "/api/users/alice/posts", want: "/api/users/{username}/posts"},
		{name: "post uuid", path: "/api/posts/6f1c2a9e-1d2b-4c3d-8e9f-0a1b2c3d4e5f", want: "/api/posts/{id}"},
		{name: "post garbage", path: "/api/posts/not-an-id", want: "/api/posts/{id}"},
		{name: "numeric", path: "/api/things/42", want: "/api/things/{param}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePath(tt.path); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
