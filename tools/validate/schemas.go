//go:build validate_schemas
// +build validate_schemas

// Checks that every exposed tool in a tools dump carries a compilable JSON
// Schema. Feed it the output of 'toolmux tools --format json' or the body of
// GET /api/v1/tools:
//
//	go run -tags=validate_schemas ./tools/validate/schemas.go tools.json
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

type toolsDump struct {
	Results []exposedTool `json:"results"`
	Tools   []exposedTool `json:"tools"`
}

type exposedTool struct {
	Name        string          `json:"name"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run -tags=validate_schemas ./tools/validate/schemas.go <tools.json>\n")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading tools dump: %v\n", err)
		os.Exit(1)
	}

	var dump toolsDump
	if err := json.Unmarshal(data, &dump); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing tools dump: %v\n", err)
		os.Exit(1)
	}

	tools := dump.Results
	if len(tools) == 0 {
		tools = dump.Tools
	}
	if len(tools) == 0 {
		fmt.Fprintf(os.Stderr, "No tools found in dump\n")
		os.Exit(1)
	}

	failures := 0
	for _, tool := range tools {
		if len(tool.InputSchema) == 0 {
			fmt.Printf("✗ %s: missing input schema\n", tool.Name)
			failures++
			continue
		}

		loader := gojsonschema.NewBytesLoader(tool.InputSchema)
		if _, err := gojsonschema.NewSchema(loader); err != nil {
			fmt.Printf("✗ %s: %v\n", tool.Name, err)
			failures++
			continue
		}

		fmt.Printf("✓ %s\n", tool.Name)
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d tool schemas failed to compile\n", failures, len(tools))
		os.Exit(1)
	}

	fmt.Printf("All %d tool schemas compile\n", len(tools))
}
