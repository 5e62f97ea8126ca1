package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"kakao international format", "+82 10-1234-5678", "01012345678"},
		{"plus82 no space", "+8210-1234-5678", "01012345678"},
		{"plus82 dash first", "+82-10-1234-5678", "01012345678"},
		{"naver local format", "010-1234-5678", "01012345678"},
		{"spaces only", "010 1234 5678", "01012345678"},
		{"already canonical", "01012345678", "01012345678"},
		{"plus82 keeps existing zero", "+82 010-1234-5678", "01012345678"},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanonicalPhone(tc.in))
		})
	}
}
