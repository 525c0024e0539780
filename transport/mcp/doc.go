// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API (package api), and the JSON reply is rendered as text an agent can
// read, including the grid with 1-indexed row and column headers.
//
// MCP Tools:
//   - create_session, import_session, get_session, list_sessions
//   - game_state: Score, inventory, build queue and grid
//   - build, star, bomb: One action at (row, col)
//   - preview: The outcome of an action without committing it
//   - run_commands: A PUT/STAR/BOMBER batch applied all-or-nothing
//   - undo, redo, jump: History navigation
//   - history, export, save_output
//   - list_levels, game_instructions
//
// Tool coordinates are 1-indexed to match command text; the client converts
// them to the 0-indexed coordinates of the REST API.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	response := client.GetMCPServer().HandleMessage(ctx, body)
//
// Rejected actions come back as tool errors carrying the API message, so an
// agent sees the same text a player would.
package mcp
