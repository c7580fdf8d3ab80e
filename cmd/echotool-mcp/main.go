// Command echotool-mcp runs the echotool MCP server over stdio.
// This is used for testing the MCP client integration.
package main

import (
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/toolscope-io/toolscope/pkg/mcpserver/echotool"
)

func main() {
	log.Println("echotool-mcp serving on stdio")

	s := echotool.NewServer()
	if err := server.ServeStdio(s); err != nil {
		log.Fatal(err)
	}
}
