package extract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// imagePage wraps entries at the data path inside a results page that also
// carries a decoy ds:0 block.
func imagePage(t *testing.T, entries []interface{}) string {
	t.Helper()
	d56 := []interface{}{nil, []interface{}{[]interface{}{[]interface{}{nil, []interface{}{entries}}}}}
	data := make([]interface{}, 57)
	data[56] = d56
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return `<html><head>
<script nonce="x">AF_initDataCallback({key: 'ds:0', hash: '1', data:[1,2], sideChannel: {}});</script>
<script nonce="x">AF_initDataCallback({key: 'ds:1', hash: '2', data:` + string(raw) + `, sideChannel: {}});</script>
</head><body></body></html>`
}

func imageEntry(id, thumb, full, page, title string) interface{} {
	record := []interface{}{
		1.0,
		[]interface{}{"GRC"},
		[]interface{}{thumb, 120.0, 160.0},
		[]interface{}{full, 600.0, 800.0},
		nil,
		map[string]interface{}{
			"2000": []interface{}{"not a source"},
			"2003": []interface{}{nil, "docid", page, title, "site"},
		},
	}
	holder := map[string]interface{}{
		id:   []interface{}{0.0, record},
		"~z": "ignored",
	}
	return []interface{}{[]interface{}{holder}}
}

func TestParseImagePage(t *testing.T) {
	broken := []interface{}{[]interface{}{map[string]interface{}{"1": []interface{}{0.0, []interface{}{nil, nil, []interface{}{"https://t/x"}}}}}}
	page := imagePage(t, []interface{}{
		imageEntry("444", "https://t/1", "https://f/1.jpg", "https://page/1", "La luz"),
		broken,
		"not even an array",
		imageEntry("555", "https://t/2", "https://f/2.png", "https://page/2", "Luz del sol"),
	})

	images, err := ParseImagePage(page)
	if err != nil {
		t.Fatalf("ParseImagePage: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2: %+v", len(images), images)
	}
	want := core.ImageCandidate{
		ThumbURL: "https://t/1", ThumbHeight: 120, ThumbWidth: 160,
		FullURL: "https://f/1.jpg", FullHeight: 600, FullWidth: 800,
		Title: "La luz", SourcePageURL: "https://page/1",
	}
	if images[0] != want {
		t.Fatalf("first image = %+v, want %+v", images[0], want)
	}
	if images[1].FullURL != "https://f/2.png" || images[1].Title != "Luz del sol" {
		t.Fatalf("second image = %+v", images[1])
	}
}

func TestParseImagePageErrors(t *testing.T) {
	tests := []struct {
		name string
		html string
		want error
	}{
		{"no script", `<html><body>nothing</body></html>`, core.ErrPayloadNotFound},
		{"only ds:0", `<script>AF_initDataCallback({key: 'ds:0', data:[]});</script>`, core.ErrPayloadNotFound},
		{"both markers", `<script>AF_initDataCallback({key: 'ds:1', other: 'ds:0', data:[]});</script>`, core.ErrPayloadNotFound},
		{"no terminator", `<script>AF_initDataCallback({key: 'ds:1', data:[]}</script>`, core.ErrPayloadNotFound},
		{"bad literal", `<script>AF_initDataCallback({key: 'ds:1', data:[[[}});</script>`, core.ErrPayloadMalformed},
		{"short data", `<script>AF_initDataCallback({key: 'ds:1', data:[1,2,3]});</script>`, core.ErrPayloadMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImagePage(tt.html)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFirstKeyIsLexicographic(t *testing.T) {
	k, ok := firstKey(map[string]interface{}{"b": 1, "a1": 2, "c": 3})
	if !ok || k != "a1" {
		t.Fatalf("firstKey = %q, %v", k, ok)
	}
	if _, ok := firstKey(map[string]interface{}{}); ok {
		t.Fatalf("empty object must not yield a key")
	}
	if _, ok := firstKey([]interface{}{1}); ok {
		t.Fatalf("array must not yield a key")
	}
}

func TestCutLiteralKeepsClosingBrace(t *testing.T) {
	got, ok := cutLiteral(`x;AF_initDataCallback({a: {b: 1}});AF_initDataCallback({c: 2});`)
	if !ok || got != "{a: {b: 1}}" {
		t.Fatalf("cutLiteral = %q, %v", got, ok)
	}
	if strings.Contains(got, ");") {
		t.Fatalf("literal leaked past terminator: %q", got)
	}
}

func TestDecodeLiteralAcceptsJavaScriptSyntax(t *testing.T) {
	tests := []struct {
		name    string
		literal string
	}{
		{"single quotes", `{key: 'ds:1', hash: '2', data:[1,2], sideChannel: {}}`},
		{"trailing comma", `{key: 'ds:1', hash: '2', data:[1,2,], sideChannel: {},}`},
		{"escaped quote", `{key: 'ds:1', title: 'it\'s', data:[1,2]}`},
		{"double quotes", `{"key": "ds:1", "data": [1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := decodeLiteral(tt.literal)
			if err != nil {
				t.Fatalf("decodeLiteral: %v", err)
			}
			if key, ok := str(v, "key"); !ok || key != "ds:1" {
				t.Fatalf("key = %q, %v", key, ok)
			}
			if n, ok := integer(v, "data", 1); !ok || n != 2 {
				t.Fatalf("data[1] = %d, %v", n, ok)
			}
		})
	}
}
