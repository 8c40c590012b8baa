package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecipients(t *testing.T) {
	tests := []struct {
		name   string
		emails string
		want   []string
	}{
		{name: "empty", emails: "", want: nil},
		{name: "whitespace only", emails: "  ,  ", want: nil},
		{name: "single", emails: "one@example.com", want: []string{"one@example.com"}},
		{
			name:   "trimmed list",
			emails: " one@example.com , two@example.com,three@example.com ",
			want:   []string{"one@example.com", "two@example.com", "three@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &AppSettings{Emails: tt.emails}
			if diff := cmp.Diff(tt.want, s.Recipients()); diff != "" {
				t.Errorf("Recipients mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
