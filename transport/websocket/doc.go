// Package websocket pushes live session updates to browser clients.
//
// Clients connect with a session ID (?sessionId=ab12) and receive a JSON
// Message every time the session changes:
//
//	{"session_id":"ab12","event":"state_update","game":{...}}
//
// The game field is a service.GameView. A session_deleted event is sent
// when the session is removed. Clients only listen; frames they send are
// read and discarded to keep the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("sessionId"))
//	})
//
//	hub.BroadcastToSession(sessionID, view)
//
// Concurrency:
//
// The session table is owned by the Run goroutine. Register, unregister
// and broadcast requests reach it over channels, so every exported method
// is safe to call from request handlers. Session IDs are matched
// case-insensitively.
package websocket
