package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeRawJSON prints pre-encoded JSON followed by a newline.
func writeRawJSON(cmd *cobra.Command, data []byte) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
	return err
}
