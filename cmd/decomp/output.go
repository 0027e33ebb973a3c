package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hokaccha/go-prettyjson"
)

var outputFormatsCompletion = []string{"json", "text"}

// output writes text as is, or result as JSON, depending on --format.
func (a *app) output(w io.Writer, text string, result any) error {
	switch strings.ToLower(a.v.GetString("format")) {
	case "", "text":
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		_, err := io.WriteString(w, text)
		return err
	case "json":
		data, err := a.outputJSON(result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("unknown output format: %s", a.v.GetString("format"))
	}
}

func (a *app) outputJSON(result any) ([]byte, error) {
	if a.v.GetBool("no-color") {
		return json.MarshalIndent(result, "", "  ")
	}
	return prettyjson.Marshal(result)
}
