package digester

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want InboundKind
	}{
		{name: "text", raw: `{"type":"message","text":"hello"}`, want: InboundText},
		{name: "explicit postback", raw: `{"type":"message","text":"{\"option\":1}","channelData":{"postback":true}}`, want: InboundPostback},
		{name: "marker postback without text", raw: `{"type":"message","channelData":{"text":"x smbapostback y"}}`, want: InboundPostback},
		{name: "marker wins over text", raw: `{"type":"message","text":"hello","channelData":{"text":"smbapostback"}}`, want: InboundPostback},
		{name: "falsy postback flag", raw: `{"type":"message","text":"hello","channelData":{"postback":false}}`, want: InboundText},
		{name: "attachment", raw: `{"type":"message","attachments":[{"contentUrl":"http://x/a.png"}]}`, want: InboundAttachment},
		{name: "text beats attachment", raw: `{"type":"message","text":"look","attachments":[{"contentUrl":"http://x/a.png"}]}`, want: InboundText},
		{name: "empty text", raw: `{"type":"message","text":""}`, want: InboundUnknown},
		{name: "typing", raw: `{"type":"typing"}`, want: InboundUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg InboundMessage
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &msg))
			require.Equal(t, tt.want, ClassifyInbound(msg))
		})
	}
}

func TestEveryInboundKindHasHandler(t *testing.T) {
	d := New(testDigesterConfig(), nil, nil)
	for _, kind := range inboundKinds {
		if _, ok := d.inbound[kind]; !ok {
			t.Fatalf("no inbound digester for %q", kind)
		}
		if _, ok := inboundMatchers[kind]; !ok {
			t.Fatalf("no inbound matcher for %q", kind)
		}
	}
}

func TestDigestInboundText(t *testing.T) {
	d := New(testDigesterConfig(), nil, nil)

	got, err := d.DigestInbound([]byte(`{"type":"message","text":"Where is my order?"}`))
	require.NoError(t, err)
	require.Equal(t, []CanonicalRequest{{"message": "Where is my order?"}}, got)

	question, ok := got[0].Message()
	require.True(t, ok)
	require.Equal(t, "Where is my order?", question)
}

func TestDigestInboundPostbackDecodesObject(t *testing.T) {
	d := New(testDigesterConfig(), nil, nil)

	raw := `{"type":"message","text":"{\"escalateOption\":true}","channelData":{"text":"smbapostback"}}`
	got, err := d.DigestInbound([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, []CanonicalRequest{{"escalateOption": true}}, got)
}

func TestDigestInboundMalformedPostback(t *testing.T) {
	d := New(testDigesterConfig(), nil, nil)

	tests := []string{
		`{"type":"message","text":"not json","channelData":{"postback":true}}`,
		`{"type":"message","text":"null","channelData":{"postback":true}}`,
		`{"type":"message","channelData":{"text":"smbapostback"}}`,
		`{"type":"message","text":"{\"escalateOption\":true} not json","channelData":{"postback":true}}`,
		`{"type":"message","text":"{\"option\":1}}","channelData":{"postback":true}}`,
		`{"type":"message","text":"{\"option\":1} {\"option\":2}","channelData":{"postback":true}}`,
	}
	for _, raw := range tests {
		_, err := d.DigestInbound([]byte(raw))
		if !IsKind(err, ErrorMalformedPostback) {
			t.Fatalf("DigestInbound(%s) error = %v, want %s", raw, err, ErrorMalformedPostback)
		}
	}
}

func TestDigestInboundAttachmentsPreserveOrder(t *testing.T) {
	d := New(testDigesterConfig(), nil, nil)

	for n := 1; n <= 4; n++ {
		attachments := make([]InboundFile, 0, n)
		want := make([]CanonicalRequest, 0, n)
		for i := 0; i < n; i++ {
			url := fmt.Sprintf("http://files/%d.png", i)
			attachments = append(attachments, InboundFile{ContentURL: url})
			want = append(want, CanonicalRequest{"message": url})
		}

		got, err := d.DigestInboundMessage(InboundMessage{Type: "message", Attachments: attachments})
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestDigestInboundEmptyCases(t *testing.T) {
	d := New(testDigesterConfig(), nil, nil)

	for _, raw := range []string{
		"", "  ", "null",
		`{"type":"conversationUpdate","text":"hi"}`,
		`{"type":"message"}`,
		`{"type":"typing","text":"hi"}`,
		`{"text":"no type"}`,
	} {
		got, err := d.DigestInbound([]byte(raw))
		if err != nil {
			t.Fatalf("DigestInbound(%q) error: %v", raw, err)
		}
		if len(got) != 0 {
			t.Fatalf("DigestInbound(%q) = %v, want empty", raw, got)
		}
	}
}

func TestDigestInboundPostbackAllowsTrailingWhitespace(t *testing.T) {
	d := New(testDigesterConfig(), nil, nil)

	raw := `{"type":"message","text":" {\"option\":1}\n ","channelData":{"postback":true}}`
	got, err := d.DigestInbound([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, []CanonicalRequest{{"option": json.Number("1")}}, got)
}

func TestDigestInboundInvalidJSON(t *testing.T) {
	d := New(testDigesterConfig(), nil, nil)

	_, err := d.DigestInbound([]byte(`{"type":`))
	if KindOf(err) != ErrorMalformedInbound {
		t.Fatalf("error kind = %q, want %q", KindOf(err), ErrorMalformedInbound)
	}
}

func TestIsChannelRequest(t *testing.T) {
	if !IsChannelRequest([]byte(`{"type":"message","conversation":{"id":"c"},"recipient":{"id":"b"}}`)) {
		t.Fatal("expected message activity to be a channel request")
	}
	if IsChannelRequest([]byte(`{"type":"message","conversation":{"id":"c"}}`)) {
		t.Fatal("expected activity without recipient to be rejected")
	}
	if IsChannelRequest([]byte(`{"trigger":"messages:new"}`)) {
		t.Fatal("expected non-activity payload to be rejected")
	}
	if IsChannelRequest([]byte(`garbage`)) {
		t.Fatal("expected invalid JSON to be rejected")
	}
}
