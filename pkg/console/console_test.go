package console

import (
	"bytes"
	"testing"
)

func TestPlainPrinter(t *testing.T) {
	var out, errOut bytes.Buffer
	p := &Printer{Out: &out, Err: &errOut, Plain: true}

	p.Success("done")
	p.Info("note")
	p.Warning("careful")
	p.Error("broken")

	if out.String() != "done\nnote\n" {
		t.Fatalf("stdout = %q", out.String())
	}
	if errOut.String() != "careful\nbroken\n" {
		t.Fatalf("stderr = %q", errOut.String())
	}
}

func TestNilWriterIsIgnored(t *testing.T) {
	p := &Printer{Plain: true}
	p.Success("nowhere")
}
