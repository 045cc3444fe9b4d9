package ws

const (
	TypeWelcome = "welcome"
	TypeOutput  = "output"
	TypeExit    = "exit"
	TypeError   = "error"
)

// WelcomeMessage is the first frame of every connection
const WelcomeMessage = "Connected to AstraTerm API v1.2.0"

// FarewellMessage accompanies the exit frame
const FarewellMessage = "Goodbye!"

// Inbound is a client frame
type Inbound struct {
	Command string `json:"command"`
}

// WelcomeFrame opens every connection
type WelcomeFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// OutputFrame carries one command's Result
type OutputFrame struct {
	Type     string  `json:"type"`
	Command  string  `json:"command"`
	Output   string  `json:"output"`
	Error    *string `json:"error"`
	ExitCode int     `json:"exit_code"`
}

// MessageFrame is used for exit and error frames
type MessageFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
