package protocol

// DBRequest is the shape of every framed request sent to the DB service:
// {collection, action, data}.
type DBRequest struct {
	Collection string         `json:"collection"`
	Action     string         `json:"action"`
	Data       map[string]any `json:"data,omitempty"`
}

// DBResponse is the shape of every DB service reply: {ok, ...payload-or-reason}.
// Handlers marshal the payload fields directly alongside ok/reason, so this
// type is decoded into a map[string]any by callers rather than a fixed
// struct — the payload shape varies per collection/action.
type DBResponse = map[string]any

// Collection names.
const (
	CollectionUsersDev    = "Users_Dev"
	CollectionUsersPlayer = "Users_Player"
	CollectionGames       = "Games"
	CollectionReviews     = "Reviews"
)

// Action names.
const (
	ActionRegister   = "register"
	ActionAuth       = "auth"
	ActionGet        = "get"
	ActionRecordPlay = "record_play"
	ActionUpload     = "upload"
	ActionList       = "list"
	ActionSetActive  = "set_active"
	ActionSubmit     = "submit"
)

// DBOk builds a successful DB service reply: {ok:true, ...payload}.
func DBOk(payload map[string]any) DBResponse {
	out := map[string]any{"ok": true}
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// DBFail builds a failing DB service reply: {ok:false, reason:"..."}.
func DBFail(reason Reason) DBResponse {
	return map[string]any{"ok": false, "reason": string(reason)}
}
