// Package api exposes the warehouse service over HTTP.
//
// Sessions:
//   - POST   /api/sessions                  {config_id, wide} creates a session
//   - GET    /api/sessions                  ?sort=created|accessed&order=asc|desc&limit=N
//   - GET    /api/sessions/unified          ?sessionIds=a,b or ?configName=small
//   - GET    /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Robot:
//   - GET  /api/sessions/{id}/state
//   - GET  /api/sessions/{id}/render       plain-text grid
//   - POST /api/sessions/{id}/move         {direction, reset}
//   - POST /api/sessions/{id}/bulk-move    {moves: ["<^^", "right"], reset}
//   - POST /api/sessions/{id}/run          {steps} advances the scripted moves
//   - POST /api/sessions/{id}/reset
//   - GET  /api/sessions/{id}/history      ?page=&limit=&order=
//   - GET  /api/sessions/{id}/score
//
// Scenarios:
//   - GET  /api/configs
//   - GET  /api/configs/{name}
//   - POST /api/configs                    saves a JSON scenario
//
// GET /api/health reports liveness and /ws?session=<id> streams state
// updates through the websocket hub. Errors are returned as
// {"error": "..."}: unknown directions and invalid scenarios map to 400,
// unknown sessions and scenarios to 404.
package api
