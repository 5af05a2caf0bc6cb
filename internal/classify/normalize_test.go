package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Senior Software Engineer, Gameplay", "senior software engineer gameplay"},
		{"  (Senior)   Server Engineer ", "senior server engineer"},
		{"Co-op/Internship", "co op internship"},
		{"Animation R&D Programmer", "animation r d programmer"},
		{"C++ Engineer", "c engineer"},
		{"Sr. Manager", "sr manager"},
		{"3D Generalist", "3d generalist"},
		{"Ingénieur Logiciel", "ingénieur logiciel"},
		{"", ""},
		{"!!!", ""},
		{"\t\nQA\tTester\r\n", "qa tester"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "a", "A-B", "---", "Technical Director of Gameplay",
		"ΟΔΥΣΣΕΥΣ", "İstanbul", "ǅemal", "straße", "ﬁnance", "x́y",
		"\xff\xfe bad utf8", "日本語 タイトル", "٣ digits ٤", "🎮 Game 🎮",
	}
	for _, tc := range titleCases {
		inputs = append(inputs, tc.title)
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "%q", in)
	}
}
