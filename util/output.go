package util

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// WriteJSON writes indented JSON followed by a newline.
func WriteJSON(w io.Writer, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem writing data")
	}

	if _, err := w.Write(out); err != nil {
		return errors.WithStack(err)
	}
	_, err = io.WriteString(w, "\n")
	return errors.WithStack(err)
}

func WriteJSONFile(fn string, data interface{}) error {
	f, err := os.Create(fn)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if err := WriteJSON(f, data); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(f.Sync())
}
