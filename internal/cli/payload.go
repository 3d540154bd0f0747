package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// readPayload returns the command JSON from --json or --file. Files may
// carry comments and trailing commas; "-" reads stdin.
func readPayload(inline, file string, stdin io.Reader) (string, error) {
	switch {
	case inline != "" && file != "":
		return "", fmt.Errorf("use either --json or --file, not both")
	case inline == "" && file == "":
		return "", fmt.Errorf("a payload is required: pass --json or --file")
	}

	data := []byte(inline)
	if file != "" {
		var err error
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read payload: %w", err)
		}
		data = jsonc.ToJSON(data)
	}

	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("payload is not valid JSON")
	}
	return string(data), nil
}
