package httptransport

import (
	dErrors "adminauth/pkg/domain-errors"
)

// The wire protocol is a single action-dispatched endpoint. The raw action
// string is parsed once into a closed command type so every handler works
// with an exhaustive switch instead of scattered string comparisons.

// authRequest is the raw JSON body of POST /.
type authRequest struct {
	Action   string `json:"action"`
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Command is the closed set of operations the auth endpoint accepts.
type Command interface {
	isCommand()
}

// LoginCommand authenticates a username/password pair.
type LoginCommand struct {
	Username string
	Password string
}

// VerifyCommand validates a session token.
type VerifyCommand struct {
	Token string
}

// LogoutCommand revokes a session token.
type LogoutCommand struct {
	Token string
}

func (LoginCommand) isCommand()  {}
func (VerifyCommand) isCommand() {}
func (LogoutCommand) isCommand() {}

// parseCommand maps the raw request onto a typed command. Unknown actions
// are rejected here so handlers never see them.
func parseCommand(req authRequest) (Command, error) {
	switch req.Action {
	case "login":
		return LoginCommand{Username: req.Username, Password: req.Password}, nil
	case "verify":
		return VerifyCommand{Token: req.Token}, nil
	case "logout":
		return LogoutCommand{Token: req.Token}, nil
	case "":
		return nil, dErrors.New(dErrors.CodeValidation, "action is required")
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown action")
	}
}
