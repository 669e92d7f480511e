package cataloging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/providers"
)

// fakeProvider answers each request with the next scripted reply. A reply of
// nil means "describe every image in the request".
type fakeProvider struct {
	replies  []*fakeReply
	requests []providers.Config
}

type fakeReply struct {
	text string
	err  error
}

func (f *fakeProvider) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	idx := len(f.requests)
	f.requests = append(f.requests, config)

	if idx < len(f.replies) && f.replies[idx] != nil {
		return f.replies[idx].text, f.replies[idx].err
	}

	answer := make(map[string]string, len(config.Images))
	for _, img := range config.Images {
		answer[img.Name] = "description of " + img.Name
	}
	b, _ := json.Marshal(answer)
	return "```json\n" + string(b) + "\n```", nil
}

// requestedNames returns the image names of every request, in order.
func (f *fakeProvider) requestedNames() [][]string {
	var out [][]string
	for _, req := range f.requests {
		var names []string
		for _, img := range req.Images {
			names = append(names, img.Name)
		}
		out = append(out, names)
	}
	return out
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("img:"+name), 0644); err != nil {
			t.Fatal(err)
		}
	}
}
