package aggregate

import (
	"bufio"
	"context"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// document writes the fixed section layout and keeps the first write error.
type document struct {
	w   *bufio.Writer
	err error
}

func (d *document) write(parts ...string) {
	for _, s := range parts {
		if d.err != nil {
			return
		}
		_, d.err = d.w.WriteString(s)
	}
}

func (d *document) header(name, treeText string) {
	if treeText != "" && !strings.HasSuffix(treeText, "\n") {
		treeText += "\n"
	}
	d.write(
		"Module Name: "+name+"\n",
		Separator+"\n\n",
		"Tree Structure:\n",
		treeText,
		Separator+"\n\n",
	)
}

// section emits the banner for path followed by its content.
func (d *document) section(path, content string) {
	d.write(Banner(path), content, "\n\n")
}

func (d *document) footer(ctx context.Context, env EnvReporter) {
	d.write(Separator+"\n\n", "Terminal Information:\n")
	if env != nil {
		d.write(env.Report(ctx))
	}
}

// Banner is the delimiter placed before each file's content.
func Banner(path string) string {
	return "======\n" + path + "\n=======\n"
}

// ReadText reads path as UTF-8. A leading BOM is dropped and invalid byte
// sequences become U+FFFD.
func ReadText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
