package module

import "testing"

func TestBuildCommand(t *testing.T) {
	cases := []struct {
		t    Type
		path string
		want string
	}{
		{TypeBash, "/tmp/x.sh", "bash /tmp/x.sh"},
		{TypePython, "/tmp/x.py", "python3 /tmp/x.py"},
		{TypeBin, "/tmp/x.bin", "chmod +x /tmp/x.bin && /tmp/x.bin"},
	}
	for _, c := range cases {
		got := buildCommand(c.t, c.path)
		if got != c.want {
			t.Fatalf("buildCommand(%v, %q) = %q, want %q", c.t, c.path, got, c.want)
		}
	}
}
