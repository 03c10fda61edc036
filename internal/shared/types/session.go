package types

// Variable categories. Each is stored in its own backend.
const (
	CategoryTemp      = "TEMP"
	CategoryLocal     = "LOCAL"
	CategorySystem    = "SYSTEM"
	CategoryUserspace = "USERSPACE"
)

// Categories lists every variable category in display order.
var Categories = []string{CategoryTemp, CategoryLocal, CategorySystem, CategoryUserspace}

// Well-known variable names.
const (
	VarPS1      = "PS1"
	VarHome     = "HOME"
	VarPWD      = "PWD"
	VarHost     = "HOST"
	VarUser     = "USER"
	VarUUID     = "UUID"
	VarHistSize = "HISTSIZE"
	VarAlias    = "ALIAS"
	VarToken    = "TOKEN"
)

// VarRequest addresses one variable.
type VarRequest struct {
	Key      string `json:"key"`
	Value    string `json:"value,omitempty"`
	Category string `json:"category"`
}

// VarResponse answers a variable lookup.
type VarResponse struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// CategorizedVars maps category to name to value.
type CategorizedVars map[string]map[string]string

// HistoryEntries lists history oldest first.
type HistoryEntries struct {
	Entries []string `json:"entries"`
}

// HistoryEntry is the result of walking the history cursor. Index 0 is
// the empty line below the newest entry.
type HistoryEntry struct {
	Command string `json:"command"`
	Index   int    `json:"index"`
}

// Credentials carry a username and password.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PasswordChange replaces the current user's password.
type PasswordChange struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UserStatus describes the logged-in user.
type UserStatus struct {
	User     string `json:"user"`
	LoggedIn bool   `json:"loggedIn"`
}

// InputRequest asks the front end for one line of input.
type InputRequest struct {
	Prompt            string `json:"prompt"`
	Secret            bool   `json:"secret"`
	AllowHistory      bool   `json:"allowHistory"`
	AllowAutocomplete bool   `json:"allowAutocomplete"`
}

// InputResponse carries the submitted line.
type InputResponse struct {
	Value string `json:"value"`
}

// PromptRender is the rendered prompt for the next input line.
type PromptRender struct {
	Prompt string `json:"prompt"`
}

// OutputChunk is one piece of command output.
type OutputChunk struct {
	Text string `json:"text,omitempty"`
	HTML string `json:"html,omitempty"`
}

// Output is the complete output of one command invocation. ID numbers
// blocks from 1 and restarts after a clear.
type Output struct {
	ID      int           `json:"id"`
	Prompt  string        `json:"prompt"`
	Command string        `json:"command"`
	Chunks  []OutputChunk `json:"chunks"`
}

// HistoryPersist asks the history service to record a finished line.
type HistoryPersist struct {
	Command string `json:"command"`
}
