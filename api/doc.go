// Package api provides the HTTP REST API for the Structure Merge puzzle.
//
// Endpoints:
//
// Session Management:
//   - POST   /api/sessions            - Create a session from a level ({"level_id": "classic"})
//   - POST   /api/sessions/import     - Create a session from level text ({"name", "level"})
//   - GET    /api/sessions            - List sessions (?sort=created|accessed&order=asc|desc&limit=N&level=ID)
//   - GET    /api/sessions/{id}       - Get a session
//   - DELETE /api/sessions/{id}       - Delete a session and its saved output
//
// Game Operations:
//   - GET  /api/sessions/{id}/state    - Current view
//   - POST /api/sessions/{id}/action   - {"tool": "build|star|bomb", "x": 0, "y": 1}
//   - POST /api/sessions/{id}/commands - {"commands": "PUT 1 2\nSTAR 2 2"}, applied all-or-nothing
//   - POST /api/sessions/{id}/undo, /redo
//   - POST /api/sessions/{id}/jump     - {"index": 3}
//   - POST /api/sessions/{id}/preview  - Same body as action; nothing is committed
//
// Timeline and Output:
//   - GET  /api/sessions/{id}/history          - Entries with labels and scores
//   - GET  /api/sessions/{id}/history/{index}  - One snapshot without moving the pointer
//   - GET  /api/sessions/{id}/export           - Command log (?format=text for the .out body)
//   - POST /api/sessions/{id}/save             - Write <level>-<id>.out
//
// Levels:
//   - GET  /api/levels         - List level files
//   - GET  /api/levels/{name}  - Level as JSON (?format=text for the .in body)
//   - POST /api/levels         - Save {"name", "level"}
//
// Other:
//   - GET /ws?session=ab12 - Live updates, see package websocket
//   - GET /health
//
// Coordinates in JSON bodies are 0-indexed (x is the row, y the column).
// Command text is 1-indexed.
//
// Error Handling:
//
// Errors are returned as JSON with the HTTP status repeated in code:
//
//	{"error": "You can't put stars here, since it's not empty.", "code": 400}
//
// Rejected moves, malformed commands and level parse errors are 400 with a
// message meant for the player. Unknown sessions and levels are 404. Anything
// else is 500 with a generic message; the detail goes to the server log.
package api
