package preview

import (
	"strings"
	"testing"

	"skypeconnector/pkg/digester"
)

func TestRenderShowsEveryPart(t *testing.T) {
	messages := []digester.Message{
		digester.TextMessage("Hello there"),
		digester.ImageMessage("http://x/y/z.png", "z.png", "png"),
		digester.BuildCard("Pick one", []digester.Button{
			digester.PostBackButton("First", `{"option":1}`),
			digester.OpenURLButton("Docs", "https://example.com"),
		}),
	}

	out := Render(messages)
	for _, want := range []string{"#1", "#2", "#3", "Hello there", "z.png", "image/png", "Pick one", "First", "Docs", "https://example.com"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Render output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderOrder(t *testing.T) {
	out := Render([]digester.Message{digester.TextMessage("alpha"), digester.TextMessage("omega")})
	if strings.Index(out, "alpha") > strings.Index(out, "omega") {
		t.Fatalf("expected alpha before omega:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	if got := truncate(strings.Repeat("é", 12), 10); got != strings.Repeat("é", 10)+"..." {
		t.Fatalf("truncate long = %q", got)
	}
}
