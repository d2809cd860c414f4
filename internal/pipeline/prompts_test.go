package pipeline

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already clean",
			in:   `{"date": "Date"}`,
			want: `{"date": "Date"}`,
		},
		{
			name: "json fence",
			in:   "```json\n{\"date\": \"Date\"}\n```",
			want: `{"date": "Date"}`,
		},
		{
			name: "bare fence",
			in:   "```\n{\"date\": \"Date\"}\n```",
			want: `{"date": "Date"}`,
		},
		{
			name: "leading prose",
			in:   "Here is the mapping:\n{\"date\": \"Date\"}",
			want: `{"date": "Date"}`,
		},
		{
			name: "array payload",
			in:   "```json\n[1, 2]\n```",
			want: `[1, 2]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildMerchantPrompt(t *testing.T) {
	batch := []MerchantQuery{
		{Signature: "coffee shop", Amount: decimal.RequireFromString("-4.50"), Recent: []string{"starbucks -> Food"}},
		{Signature: "paycheck", Amount: decimal.RequireFromString("2000")},
	}
	prompt := buildMerchantPrompt(batch)

	for _, want := range []string{
		`0: "coffee shop"`,
		`1: "paycheck"`,
		"starbucks -> Food",
		"Every index from 0 to 1",
		"Other",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildColumnPromptListsHeadersVerbatim(t *testing.T) {
	prompt := buildColumnPrompt([]string{"Fecha", "Importe"}, []string{"01/15/2024", "-4.50"})
	for _, want := range []string{`"Fecha"`, `"Importe"`, "01/15/2024 | -4.50"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
