package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{
			name:   "plain object",
			in:     `{"match": true}`,
			want:   `{"match": true}`,
			wantOK: true,
		},
		{
			name:   "fenced json block",
			in:     "```json\n{\"match\": false}\n```",
			want:   `{"match": false}`,
			wantOK: true,
		},
		{
			name:   "bare fence",
			in:     "```\n{\"a\": 1}\n```",
			want:   `{"a": 1}`,
			wantOK: true,
		},
		{
			name:   "surrounding prose",
			in:     `Here is the verdict: {"match": true, "confidence": 0.9} as requested.`,
			want:   `{"match": true, "confidence": 0.9}`,
			wantOK: true,
		},
		{
			name:   "nested object",
			in:     `{"outer": {"inner": 1}}`,
			want:   `{"outer": {"inner": 1}}`,
			wantOK: true,
		},
		{name: "no object", in: "sorry, I cannot answer that", wantOK: false},
		{name: "unclosed brace", in: `{"match": true`, wantOK: false},
		{name: "empty", in: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ExtractJSON(%q) ok = %t, want %t", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
