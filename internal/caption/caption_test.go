package caption

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain caption", "plain caption"},
		{"[tag] file name", "file name"},
		{"file [v2] name [final]", "file name"},
		{"report @channel", "report"},
		{"@user1 @user2 doc", "doc"},
		{"[a]@b  c", "c"},
		{"  spaced   out  ", "spaced out"},
		{"mixed [x] @y text\n\tmore", "mixed text more"},
		{"[only]", ""},
		{"@only", ""},
		{"[unclosed bracket", "[unclosed bracket"},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"file [v2] name @handle",
		"  a  [b]  c  ",
		"plain",
		"[x][y]@z",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
