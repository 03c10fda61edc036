package types

// Bus topics. Requests are answered through Message.Respond; broadcasts
// have no reply.
const (
	// Aliases
	TopicGetAliases = "get-aliases-request"
	TopicSetAliases = "set-aliases-request"

	// Commands
	TopicCommandExecute           = "command-execute-broadcast"
	TopicCommandExecutionFinished = "command-execution-finished-broadcast"
	TopicGetCommandList           = "get-command-list-request"
	TopicGetCommandMeta           = "get-command-meta-request"

	// Autocomplete
	TopicGetSuggestions        = "get-autocomplete-suggestions-request"
	TopicAutocompleteRequest   = "autocomplete-request"
	TopicAutocompleteBroadcast = "autocomplete-broadcast"

	// Storage
	TopicStorageAPI = "storage-api-request"

	// Environment
	TopicVarGet               = "variable-get-request"
	TopicVarSet               = "variable-set-request"
	TopicVarDelete            = "variable-delete-request"
	TopicGetAllCategorizedVar = "get-all-categorized-vars-request"
	// TopicVarDefault asks the owner of a variable for its default value.
	// Only the owning service responds.
	TopicVarDefault = "variable-update-default-request"

	// History
	TopicHistoryPersist  = "command-persist-request"
	TopicHistoryGetAll   = "history-get-all-request"
	TopicHistoryPrevious = "history-previous-request"
	TopicHistoryNext     = "history-next-request"

	// Accounting
	TopicLogin          = "login-request"
	TopicLogout         = "logout-request"
	TopicAddUser        = "add-user-request"
	TopicPasswordChange = "password-change-request"
	TopicIsLoggedIn     = "is-logged-in-request"
	TopicUserChanged    = "user-changed-broadcast"

	// Terminal and presenters
	TopicInputRequest = "input-request"
	TopicInputSubmit  = "input-submit"
	// TopicInputReady is broadcast once an input request is queued and a
	// submitted line will answer it. Front ends prompt on this topic, not
	// on input-request.
	TopicInputReady   = "input-ready-broadcast"
	TopicPromptRender = "prompt-render-broadcast"
	TopicClearScreen  = "clear-screen-request"
	TopicOutput       = "output-broadcast"
)
