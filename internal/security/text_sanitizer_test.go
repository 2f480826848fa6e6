package security

import "testing"

// TestSanitize_StripsMarkup はタグとイベント属性が除去されることを検証する。
func TestSanitize_StripsMarkup(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "空文字列", input: "", want: ""},
		{name: "プレーンテキストはそのまま", input: "Seoul Olympic Park", want: "Seoul Olympic Park"},
		{name: "scriptタグは中身ごと除去", input: `Gym<script>alert(1)</script>`, want: "Gym"},
		{name: "装飾タグは除去して本文を残す", input: "<b>Spring</b> <em>Open</em>", want: "Spring Open"},
		{name: "イベント属性付きimgは除去", input: `<img src=x onerror="alert(1)">Hall A`, want: "Hall A"},
		{name: "アンパサンドはエスケープしない", input: "Kim & Lee Dojang", want: "Kim & Lee Dojang"},
		{name: "前後の空白を除去", input: "  Busan  ", want: "Busan"},
		{name: "実体参照のscriptタグも除去", input: "&lt;script&gt;alert(1)&lt;/script&gt;", want: ""},
		{name: "実体参照の装飾タグは本文を残す", input: "&lt;b&gt;Open&lt;/b&gt; Hall", want: "Open Hall"},
		{name: "二重エスケープのタグも除去", input: "&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;", want: ""},
		{name: "比較記号はテキストとして残す", input: "age < 12", want: "age < 12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitize_Idempotent は同一入力に対して出力が安定することを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()
	input := `<a href="javascript:alert(1)">Referee</a> briefing`

	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: %q then %q", first, second)
	}
	for _, r := range first {
		if r == '<' {
			t.Fatalf("Sanitize(%q) = %q, must not contain tags", input, first)
		}
	}
	if first != "Referee briefing" {
		t.Errorf("Sanitize(%q) = %q, want %q", input, first, "Referee briefing")
	}
}
