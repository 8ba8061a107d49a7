package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/richinsley/cmfy/client"
	"github.com/richinsley/cmfy/internal/xjson"
)

// stdio marks standard input or output in path arguments.
const stdio = "-"

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// openInput opens path for reading, or the command's stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == stdio {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, client.NewInputError(path, err.Error())
	}
	return f, nil
}

// openOutput creates path for writing, or returns the command's stdout for
// "-".
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == stdio {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, client.NewInputError(path, err.Error())
	}
	return f, nil
}

// writeJSON writes v followed by a newline.
func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	if err := xjson.Write(w, v, pretty); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// writeRawJSON writes an undecoded document, re-indenting it when pretty.
func writeRawJSON(w io.Writer, raw xjson.RawMessage, pretty bool) error {
	if !pretty {
		return writeJSON(w, raw, false)
	}
	var v interface{}
	if err := xjson.UnmarshalUseNumber(raw, &v); err != nil {
		return &client.ParseError{What: "json document", Err: err}
	}
	return writeJSON(w, v, true)
}

// writeJSONTo writes v to the output path.
func writeJSONTo(cmd *cobra.Command, path string, v interface{}, pretty bool) error {
	out, err := openOutput(cmd, path)
	if err != nil {
		return err
	}
	if err := writeJSON(out, v, pretty); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
