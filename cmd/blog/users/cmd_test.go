package users

import (
	"strings"
	"testing"
)

func TestReadLine(t *testing.T) {
	pw, err := readLine(strings.NewReader("  hunter22 \nignored\n"))
	if err != nil {
		t.Fatal(err)
	} else if pw != "hunter22" {
		t.Fatalf("Expecting hunter22 got %q", pw)
	}

	for _, in := range []string{"", "\n", "   \n"} {
		if _, err := readLine(strings.NewReader(in)); err == nil {
			t.Fatalf("Input %q should be rejected", in)
		}
	}
}
