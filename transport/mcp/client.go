package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/merge-puzzle-game/game/engine"
	"github.com/wricardo/merge-puzzle-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API. Tool
// coordinates are 1-indexed rows and columns, like command text.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Structure Merge",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Structure Merge - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Place structures from the build queue on the grid. Three or more connected
structures of the same tier merge into one structure of the next tier at the
cell you just filled, and merges can chain. Stars become the best reacting
tier, bombers remove a structure at a score penalty.

AVAILABLE TOOLS:
- create_session / import_session / get_session / list_sessions
- game_state: Grid, score, inventory and the build queue
- build / star / bomb: One action at (row, col), 1-indexed
- preview: What an action would do, without committing it
- run_commands: A batch like "PUT 1 2\nSTAR 3 3", all-or-nothing
- undo / redo / jump: Move through the history
- history / export / save_output
- list_levels, game_instructions`),
	)

	c.registerTools()
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

func cellArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row, starting at 1")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("Column, starting at 1")),
	}
}

func newTool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)...)
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(newTool("create_session", "Create a new game session from a level",
		mcp.WithString("level_id", mcp.Description("Level to play (see list_levels); the default level when omitted")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(newTool("import_session", "Create a session from level text in the .in format",
		mcp.WithString("level", mcp.Required(), mcp.Description("Level text: dimensions, stars/bombers, grid rows and the build queue")),
		mcp.WithString("name", mcp.Description("Name to save outputs under")),
	), c.handleImportSession)

	c.mcpServer.AddTool(newTool("list_sessions", "List all active game sessions"), c.handleListSessions)

	c.mcpServer.AddTool(newTool("get_session", "Get details of a specific session", sessionArg()), c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(newTool("game_state", "Get the current game state", sessionArg()), c.handleGameState)

	for _, tool := range []engine.Tool{engine.ToolBuild, engine.ToolStar, engine.ToolBomb} {
		opts := append([]mcp.ToolOption{sessionArg()}, cellArgs()...)
		c.mcpServer.AddTool(newTool(string(tool), toolDescriptions[tool], opts...), c.actionHandler(tool))
	}

	c.mcpServer.AddTool(newTool("preview", "Show what an action would do without committing it",
		append([]mcp.ToolOption{
			sessionArg(),
			mcp.WithString("tool", mcp.Required(), mcp.Enum("build", "star", "bomb"), mcp.Description("Action to preview")),
		}, cellArgs()...)...,
	), c.handlePreview)

	c.mcpServer.AddTool(newTool("run_commands", "Run a batch of commands. Any failing line rolls the whole batch back.",
		sessionArg(),
		mcp.WithString("commands", mcp.Required(), mcp.Description("One command per line: PUT r c, STAR r c, BOMBER r c (1-indexed). END stops reading.")),
	), c.handleRunCommands)

	c.mcpServer.AddTool(newTool("undo", "Undo the last action", sessionArg()), c.navigateHandler("undo"))
	c.mcpServer.AddTool(newTool("redo", "Redo the next action", sessionArg()), c.navigateHandler("redo"))
	c.mcpServer.AddTool(newTool("jump", "Move the history pointer to an entry",
		sessionArg(),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("History entry, 0 is the start")),
	), c.handleJump)

	// Timeline and output
	c.mcpServer.AddTool(newTool("history", "List the history entries of a session", sessionArg()), c.handleHistory)
	c.mcpServer.AddTool(newTool("export", "Show the command log leading to the current step", sessionArg()), c.handleExport)
	c.mcpServer.AddTool(newTool("save_output", "Save the command log as an output file", sessionArg()), c.handleSaveOutput)

	// Levels and help
	c.mcpServer.AddTool(newTool("list_levels", "List available levels"), c.handleListLevels)
	c.mcpServer.AddTool(newTool("game_instructions", "Get the game rules and command syntax"), c.handleGameInstructions)
}

var toolDescriptions = map[engine.Tool]string{
	engine.ToolBuild: "Build the next structure from the queue on an empty cell",
	engine.ToolStar:  "Place a star on an empty cell; it becomes the highest tier that reacts, or tier 1",
	engine.ToolBomb:  "Remove the structure on a cell at the cost of half its build score",
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID, suffix string) string {
	return fmt.Sprintf("/api/sessions/%s%s", sessionID, suffix)
}

type sessionInput struct {
	SessionID string `json:"session_id"`
}

type cellInput struct {
	SessionID string `json:"session_id"`
	Tool      string `json:"tool"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
}

// body converts to the 0-indexed REST request
func (in cellInput) body(tool string) map[string]interface{} {
	return map[string]interface{}{"tool": tool, "x": in.Row - 1, "y": in.Col - 1}
}

func bindSession(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	var in sessionInput
	if err := request.BindArguments(&in); err != nil {
		return "", mcp.NewToolResultErrorFromErr("invalid arguments", err)
	}
	if in.SessionID == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return in.SessionID, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in struct {
		LevelID string `json:"level_id"`
	}
	if err := request.BindArguments(&in); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	body := map[string]string{}
	if in.LevelID != "" {
		body["level_id"] = in.LevelID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Created " + formatSessionInfo(&session)), nil
}

func (c *Client) handleImportSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	}
	if err := request.BindArguments(&in); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions/import", in, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Created " + formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score, step := 0, 0
		if s.Game != nil && s.Game.State != nil {
			score, step = s.Game.State.Score, s.Game.Step
		}
		fmt.Fprintf(&b, "- %s (Level: %s, Step: %d, Score: %d, Created: %s)\n",
			s.ID, s.LevelID, step, score, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := bindSession(request)
	if bad != nil {
		return bad, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := bindSession(request)
	if bad != nil {
		return bad, nil
	}

	var view service.GameView
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameView(&view)), nil
}

func (c *Client) actionHandler(tool engine.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var in cellInput
		if err := request.BindArguments(&in); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
		}

		var result service.ActionResult
		if err := c.apiCall(ctx, "POST", sessionPath(in.SessionID, "/action"), in.body(string(tool)), &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(formatActionResult(&result)), nil
	}
}

func (c *Client) handlePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in cellInput
	if err := request.BindArguments(&in); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	var preview engine.Preview
	if err := c.apiCall(ctx, "POST", sessionPath(in.SessionID, "/preview"), in.body(in.Tool), &preview); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPreview(&preview)), nil
}

func (c *Client) handleRunCommands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in struct {
		SessionID string `json:"session_id"`
		Commands  string `json:"commands"`
	}
	if err := request.BindArguments(&in); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	var result service.ExecResult
	body := map[string]string{"commands": in.Commands}
	if err := c.apiCall(ctx, "POST", sessionPath(in.SessionID, "/commands"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✓ Executed %d commands (score Δ %+d)\n", result.Executed, result.ScoreDelta)
	for i, cmd := range result.Commands {
		fmt.Fprintf(&b, "  %d. %s", i+1, cmd)
		if i < len(result.Outcomes) && len(result.Outcomes[i].Phases) > 0 {
			fmt.Fprintf(&b, " (%d merges)", len(result.Outcomes[i].Phases))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(formatGameView(result.Game))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) navigateHandler(op string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, bad := bindSession(request)
		if bad != nil {
			return bad, nil
		}

		var view service.GameView
		if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/"+op), nil, &view); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(formatGameView(&view)), nil
	}
}

func (c *Client) handleJump(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in struct {
		SessionID string `json:"session_id"`
		Index     int    `json:"index"`
	}
	if err := request.BindArguments(&in); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	var view service.GameView
	body := map[string]int{"index": in.Index}
	if err := c.apiCall(ctx, "POST", sessionPath(in.SessionID, "/jump"), body, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameView(&view)), nil
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := bindSession(request)
	if bad != nil {
		return bad, nil
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/history"), nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := bindSession(request)
	if bad != nil {
		return bad, nil
	}

	var export service.ExportResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/export"), nil, &export); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(export.Output), nil
}

func (c *Client) handleSaveOutput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, bad := bindSession(request)
	if bad != nil {
		return bad, nil
	}

	var saved service.SaveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/save"), nil, &saved); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved %d commands to %s", saved.Commands, saved.Name)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, l := range levels {
		fmt.Fprintf(&b, "• %s\n  Grid: %dx%d, Filled: %d, Stars: %d, Bombers: %d, Queue: %d\n\n",
			l.LevelID, l.Height, l.Width, l.Filled, l.NumStars, l.NumBombs, l.QueueLength)
	}

	return mcp.NewToolResultText(b.String()), nil
}

const instructions = `Structure Merge - Complete Instructions

GAME OBJECTIVE:
Score as many points as you can with the structures in the build queue.

GRID:
Rows and columns are numbered from 1. A dot is an empty cell, a digit is a
structure of that tier (1-9).

ACTIONS:
• BUILD (PUT r c): place the next structure of the queue on an empty cell
• STAR r c: place a star on an empty cell. It becomes the highest tier that
  would react right away, or tier 1 when none would
• BOMBER r c: remove a structure. Costs half of that tier's build score

REACTIONS:
When a cell is filled, the group of connected cells (up, down, left, right)
with the same tier is counted. Three or more merge into one structure of the
next tier on the filled cell, and the others are cleared. The new structure
may react again. Tier 9 never reacts.

SCORING:
Each structure scores its tier's build value when it is placed or created by
a merge. Higher tiers are worth much more, so chaining merges pays off.

COMMAND BATCHES (run_commands):
One command per line, 1-indexed:
  PUT 1 2
  STAR 3 3
  BOMBER 2 2
A line that fails stops the batch and nothing from it is kept. END stops
reading, so a saved output can be replayed as is.

HISTORY:
Every action adds an entry. undo, redo and jump move between entries; a new
action after an undo discards the entries after it.

TIPS:
• Use preview before committing to see which cells would react
• Keep two equal structures next to each other and finish them with a third
• Save stars for spots where they complete a high tier group`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s\nCreated: %s\n\n%s",
		session.ID, session.LevelID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameView(session.Game))
}

func formatGameView(view *service.GameView) string {
	if view == nil || view.State == nil {
		return "No game state available"
	}
	state := view.State

	var b strings.Builder
	fmt.Fprintf(&b, "Step: %d/%d | Score: %d | Built: %d | Stars: %d | Bombers: %d\n",
		view.Step, view.HistoryLength-1, state.Score, state.NumBuilt, state.NumStars, state.NumBombs)

	if view.NextTier != nil {
		fmt.Fprintf(&b, "Next: %d | Queue: %s (%d left)\n", *view.NextTier, formatTiers(view.RemainingQueue), len(view.RemainingQueue))
	} else {
		b.WriteString("Next: none | Queue is empty\n")
	}
	if state.Command != "" {
		fmt.Fprintf(&b, "Last: %s\n", state.Command)
	}
	b.WriteString("\n")
	b.WriteString(formatGrid(state.Grid))

	if view.Finished {
		b.WriteString("\n🏁 No moves left. Final score: ")
		fmt.Fprintf(&b, "%d", state.Score)
	}
	return b.String()
}

// formatGrid renders the grid with 1-indexed row and column headers
func formatGrid(g *engine.Grid) string {
	if g == nil || g.Height() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("   ")
	for y := 0; y < g.Width(0); y++ {
		fmt.Fprintf(&b, "%3d", y+1)
	}
	b.WriteString("\n")

	for x := 0; x < g.Height(); x++ {
		fmt.Fprintf(&b, "%3d", x+1)
		for y := 0; y < g.Width(x); y++ {
			if t := g.At(x, y); t == engine.Empty {
				b.WriteString("  .")
			} else {
				fmt.Fprintf(&b, "%3d", t)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatTiers(tiers []engine.Tier) string {
	parts := make([]string, len(tiers))
	for i, t := range tiers {
		parts[i] = fmt.Sprintf("%d", t)
	}
	return strings.Join(parts, " ")
}

func formatOutcome(o *engine.Outcome) string {
	if o == nil {
		return ""
	}
	if o.Tool == engine.ToolBomb {
		return fmt.Sprintf("Removed tier %d (score %+d)", o.Placed, o.ScoreDelta)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Placed tier %d", o.Placed)
	for _, phase := range o.Phases {
		fmt.Fprintf(&b, " → %d cells of tier %d merged into %d", len(phase.Cells), phase.Before, phase.After)
	}
	fmt.Fprintf(&b, " (score %+d)", o.ScoreDelta)
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s\n", result.Command)
	if line := formatOutcome(result.Outcome); line != "" {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(formatGameView(result.Game))
	return b.String()
}

func formatPreview(p *engine.Preview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Preview %s at (%d, %d): ", p.Tool, p.Target.X+1, p.Target.Y+1)
	if line := formatOutcome(p.Outcome); line != "" {
		b.WriteString(line)
	}
	b.WriteString("\n")

	if len(p.Reacting) > 0 {
		cells := make([]string, len(p.Reacting))
		for i, pos := range p.Reacting {
			cells[i] = fmt.Sprintf("(%d,%d)", pos.X+1, pos.Y+1)
		}
		fmt.Fprintf(&b, "Reacting cells: %s\n", strings.Join(cells, " "))
	} else if p.Tool != engine.ToolBomb {
		b.WriteString("No reaction\n")
	}

	if p.Result != nil {
		b.WriteString("\nResult:\n")
		b.WriteString(formatGrid(p.Result.Grid))
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "History (%d entries, at step %d):\n", history.Total, history.Step)
	for _, e := range history.Entries {
		marker := " "
		if e.Current {
			marker = "▶"
		}
		fmt.Fprintf(&b, "%s %3d. %-14s score %d\n", marker, e.Index, e.Label, e.Score)
	}
	return b.String()
}
