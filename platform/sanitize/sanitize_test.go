package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  port-in 2 lines  ", "port-in 2 lines"},
		{"tags", "<b>bold</b> terms", "bold terms"},
		{"encoded tags", "&lt;script&gt;alert(1)&lt;/script&gt;ok", "alert(1)ok"},
		{"entities kept as text", "5 &amp; 6", "5 & 6"},
		{"comparison operators", "price < 10 and > 5", "price < 10 and > 5"},
		{"encoded comparison", "qty &lt; 3 &amp;&amp; total &gt; 0", "qty < 3 && total > 0"},
		{"heart", "thanks <3 see you > soon", "thanks <3 see you > soon"},
		{"comment", "a<!-- hidden -->b", "ab"},
		{"closing tag only", "done</p>", "done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Fatalf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptionalText(t *testing.T) {
	if OptionalText(nil) != nil {
		t.Fatal("expected nil for nil input")
	}

	blank := "  <br/> "
	if OptionalText(&blank) != nil {
		t.Fatal("expected nil for markup-only input")
	}

	note := " <i>net 30</i> "
	got := OptionalText(&note)
	if got == nil || *got != "net 30" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestTextPtrKeepsEmpty(t *testing.T) {
	empty := ""
	got := TextPtr(&empty)
	if got == nil || *got != "" {
		t.Fatal("expected empty string to survive so a patch can clear a field")
	}
}
