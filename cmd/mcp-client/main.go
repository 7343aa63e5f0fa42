// Interactive client for the kgbridge MCP server. Starts the server as a
// subprocess on stdio and drives its tools from a small REPL.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: mcp-client <server-command> [<args>]")
		fmt.Fprintln(os.Stderr, "Example: mcp-client ./kgbridge mcp")
		os.Exit(2)
	}

	ctx := context.Background()

	cmd := exec.Command(args[0], args[1:]...)
	transport := &mcp.CommandTransport{Command: cmd}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "kgbridge-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	fmt.Println("Connected to kgbridge MCP server!")
	fmt.Println("Available commands:")
	fmt.Println("  /tools              - List available tools")
	fmt.Println("  /convert <path>     - Convert a database file (no Neo4j load)")
	fmt.Println("  /load <path>        - Convert a database file and load it into Neo4j")
	fmt.Println("  /eval               - Show detailed completeness reports")
	fmt.Println("  /graph <cypher>     - Execute Cypher query")
	fmt.Println("  /exit               - Exit the client")
	fmt.Println("  <question>          - Ask a question about the converted graph")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch {
		case input == "/exit":
			fmt.Println("Goodbye!")
			return

		case input == "/tools":
			listTools(ctx, session)

		case strings.HasPrefix(input, "/convert "):
			callTool(ctx, session, "convert_database", map[string]interface{}{
				"path": strings.TrimSpace(strings.TrimPrefix(input, "/convert ")),
			})

		case strings.HasPrefix(input, "/load "):
			callTool(ctx, session, "convert_database", map[string]interface{}{
				"path": strings.TrimSpace(strings.TrimPrefix(input, "/load ")),
				"load": true,
			})

		case input == "/eval":
			callTool(ctx, session, "evaluate_conversion", map[string]interface{}{})

		case strings.HasPrefix(input, "/graph "):
			callTool(ctx, session, "query_graph", map[string]interface{}{
				"cypher": strings.TrimPrefix(input, "/graph "),
			})

		default:
			callTool(ctx, session, "ask_graph", map[string]interface{}{
				"question": input,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Scanner error: %v", err)
	}
}

func listTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("Available Tools:")
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			log.Printf("Error listing tools: %v", err)
			return
		}
		fmt.Printf("  - %s: %s\n", tool.Name, tool.Description)
	}
	fmt.Println()
}

func callTool(ctx context.Context, session *mcp.ClientSession, toolName string, args map[string]interface{}) {
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		log.Printf("Error calling tool: %v", err)
		return
	}
	printResult(result)
}

func printResult(result *mcp.CallToolResult) {
	if result.IsError {
		fmt.Printf("Error: ")
	}

	for _, content := range result.Content {
		switch v := content.(type) {
		case *mcp.TextContent:
			fmt.Println(v.Text)
		default:
			jsonData, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				fmt.Printf("%+v\n", content)
			} else {
				fmt.Println(string(jsonData))
			}
		}
	}
	fmt.Println()
}
