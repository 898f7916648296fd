package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Session:
		o.printSession(v)
	case SessionResult:
		o.printSession(v.Session)
		fmt.Printf("Token: %s\n", v.SessionToken)
	case Profile:
		o.printProfile(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Identity response type (matches API)
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Provider    string `json:"provider"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Profile response type
type Profile struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email,omitempty"`
	Elo             int       `json:"elo"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	LastLoginAt     time.Time `json:"last_login_at"`
}

// Session response type
type Session struct {
	State        string    `json:"state"`
	SignedIn     bool      `json:"signed_in"`
	Loading      bool      `json:"loading"`
	Identity     *Identity `json:"identity,omitempty"`
	Profile      *Profile  `json:"profile,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Seq          uint64    `json:"seq"`
	Version      uint64    `json:"version"`
}

// SessionResult combines a new session and its token
type SessionResult struct {
	SessionToken string  `json:"session_token"`
	Session      Session `json:"session"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func (o *Output) printSession(s Session) {
	fmt.Printf("State: %s\n", s.State)
	if s.Identity == nil {
		fmt.Println("Signed in: no")
	} else {
		fmt.Printf("Signed in: %s (%s, %s)\n", s.Identity.Email, s.Identity.ID, s.Identity.Provider)
	}
	if s.Profile != nil {
		fmt.Printf("Player: %s (elo %d)\n", s.Profile.Username, s.Profile.Elo)
	} else if s.SignedIn {
		fmt.Println("Player: no profile (run 'cgame profile repair')")
	}
	if s.ErrorMessage != "" {
		fmt.Printf("Last error: %s [%s]\n", s.ErrorMessage, s.ErrorKind)
	}
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("Player: %s (%s)\n", p.Username, p.ID)
	fmt.Printf("Email: %s\n", p.Email)
	fmt.Printf("Elo: %d\n", p.Elo)
	if p.ProfileImageURL != "" {
		fmt.Printf("Image: %s\n", p.ProfileImageURL)
	}
	fmt.Printf("Joined: %s\n", p.CreatedAt.Format(time.RFC3339))
	if !p.LastLoginAt.IsZero() {
		fmt.Printf("Last login: %s\n", p.LastLoginAt.Format(time.RFC3339))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Storage: %s\n", h.Storage)
}
