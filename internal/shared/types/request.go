package types

// SetAliases replaces the alias table.
type SetAliases struct {
	Aliases map[string]string `json:"aliases"`
}

// AliasesResponse answers TopicGetAliases.
type AliasesResponse struct {
	Aliases map[string]string `json:"aliases"`
}

// Sink receives the output of one command invocation.
type Sink interface {
	SetText(text string)
	AppendText(text string)
	AppendHTML(html string)
}

// CommandExecute asks the resolver to run one command line.
type CommandExecute struct {
	CommandString string
	Output        Sink
}

// CommandListResponse answers TopicGetCommandList with permitted names.
type CommandListResponse struct {
	Commands []string `json:"commands"`
}

// Command metadata keys.
const (
	MetaDescription = "description"
	MetaManual      = "manual"
)

// CommandMetaRequest asks for one piece of command metadata.
type CommandMetaRequest struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// CommandMetaResponse answers TopicGetCommandMeta.
type CommandMetaResponse struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// SuggestionsRequest carries the committed tokens plus the word being
// completed (always "" from the orchestrator).
type SuggestionsRequest struct {
	Parts []string `json:"parts"`
}

// SuggestionsResponse lists completion candidates. Description is a
// positional hint shown when there is nothing to complete.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
	Description string   `json:"description,omitempty"`
}

// AutocompleteRequest is the text around the cursor when Tab is pressed.
type AutocompleteRequest struct {
	BeforeCursor string `json:"beforeCursor"`
	AfterCursor  string `json:"afterCursor"`
}

// AutocompleteResult is the render-ready completion.
type AutocompleteResult struct {
	NewTextBeforeCursor string   `json:"newTextBeforeCursor"`
	Options             []string `json:"options"`
	AfterCursorText     string   `json:"afterCursorText"`
	Description         string   `json:"description,omitempty"`
	PrefixLength        int      `json:"prefixLength"`
}
