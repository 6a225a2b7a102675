package cmd

import (
	"encoding/json"
	"fmt"
	"os"
)

// writeOutput appends a step output in the name=value form GitHub Actions
// reads from GITHUB_OUTPUT. Nothing is written when path is empty.
func writeOutput(path, name string, value any) error {
	if path == "" {
		return nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding output %s: %w", name, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s=%s\n", name, encoded); err != nil {
		return fmt.Errorf("writing output %s: %w", name, err)
	}
	return nil
}
