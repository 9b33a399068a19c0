package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// printJSON writes v to stdout as indented JSON
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printf writes a formatted line to stdout
func printf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
