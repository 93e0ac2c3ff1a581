package manifest

import "testing"

func TestResolveConflicts(t *testing.T) {
	conflicted := "dependencies:\n" +
		"<<<<<<< HEAD\n" +
		"  - repo: https://h/org/core.git\n" +
		"    commit: aaa\n" +
		"=======\n" +
		"  - repo: https://h/org/core.git\n" +
		"    commit: bbb\n" +
		">>>>>>> feature\n" +
		"  - repo: https://h/org/util.git\n"

	tests := []struct {
		name     string
		input    string
		side     Side
		want     string
		wantFlag bool
	}{
		{
			name:     "no markers",
			input:    "dependencies: []\n",
			side:     Ours,
			want:     "dependencies: []\n",
			wantFlag: false,
		},
		{
			name:  "ours",
			input: conflicted,
			side:  Ours,
			want: "dependencies:\n" +
				"  - repo: https://h/org/core.git\n" +
				"    commit: aaa\n" +
				"  - repo: https://h/org/util.git\n",
			wantFlag: true,
		},
		{
			name:  "theirs",
			input: conflicted,
			side:  Theirs,
			want: "dependencies:\n" +
				"  - repo: https://h/org/core.git\n" +
				"    commit: bbb\n" +
				"  - repo: https://h/org/util.git\n",
			wantFlag: true,
		},
		{
			name:     "block at end without trailing newline",
			input:    "<<<<<<< HEAD\na\n=======\nb\n>>>>>>> other",
			side:     Theirs,
			want:     "b\n",
			wantFlag: true,
		},
		{
			name:     "diff3 base section dropped",
			input:    "<<<<<<< HEAD\na\n||||||| base\no\n=======\nb\n>>>>>>> other\n",
			side:     Ours,
			want:     "a\n",
			wantFlag: true,
		},
		{
			name:     "two blocks",
			input:    "<<<<<<< HEAD\na\n=======\nb\n>>>>>>> x\nmid\n<<<<<<< HEAD\nc\n=======\nd\n>>>>>>> x\n",
			side:     Ours,
			want:     "a\nmid\nc\n",
			wantFlag: true,
		},
		{
			name:     "unterminated block left alone",
			input:    "x\n<<<<<<< HEAD\na\n=======\nb\n",
			side:     Ours,
			want:     "x\n<<<<<<< HEAD\na\n=======\nb\n",
			wantFlag: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, flag := ResolveConflicts(tt.input, tt.side)
			if got != tt.want {
				t.Errorf("ResolveConflicts() = %q, want %q", got, tt.want)
			}
			if flag != tt.wantFlag {
				t.Errorf("conflicted = %v, want %v", flag, tt.wantFlag)
			}
		})
	}
}
