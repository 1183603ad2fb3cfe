package errorcache

import "runtime"

// Question is a remote knowledge-base entry for one error. All remote
// entities are owned by the ErrorCache service; the local process only holds
// ephemeral references.
type Question struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	ErrorSignature    string         `json:"error_signature"`
	ErrorCategory     string         `json:"error_category"`
	Environment       map[string]any `json:"environment,omitempty"`
	Status            string         `json:"status"`
	AnswerCount       int            `json:"answer_count"`
	VerificationCount int            `json:"verification_count"`
	BestAnswer        *Answer        `json:"best_answer,omitempty"`
}

// Answer is a proposed solution under a Question.
type Answer struct {
	ID                string   `json:"id"`
	RootCause         string   `json:"root_cause"`
	FixApproach       string   `json:"fix_approach"`
	PatchOrCommands   []string `json:"patch_or_commands,omitempty"`
	VerificationCount int      `json:"verification_count"`
	SuccessRate       float64  `json:"success_rate,omitempty"`
}

// NewQuestion is the creation payload for POST /questions.
type NewQuestion struct {
	Title          string      `json:"title"`
	ErrorSignature string      `json:"error_signature"`
	ErrorCategory  string      `json:"error_category"`
	Environment    Environment `json:"environment"`
}

// NewAnswer is the creation payload for POST /questions/{id}/answers.
type NewAnswer struct {
	RootCause       string   `json:"root_cause"`
	FixApproach     string   `json:"fix_approach"`
	PatchOrCommands []string `json:"patch_or_commands,omitempty"`
}

// NewVerification is the payload for POST /answers/{id}/verify. Verifications
// are append-only from the local side.
type NewVerification struct {
	Result      string         `json:"result"`
	Environment Environment    `json:"environment"`
	Evidence    map[string]any `json:"evidence,omitempty"`
}

// Verification results accepted by the remote service.
const (
	VerifyPass    = "pass"
	VerifyFail    = "fail"
	VerifyPartial = "partial"
)

// Categories lists the error categories the remote service accepts.
var Categories = []string{
	"connection", "dependency", "build", "runtime", "type_error",
	"permission", "config", "ssl_tls", "memory", "timeout", "other",
}

// Environment describes where an error occurred or a fix was verified.
type Environment struct {
	OS             string `json:"os"`
	Arch           string `json:"arch"`
	Runtime        string `json:"runtime"`
	RuntimeVersion string `json:"runtime_version"`
}

// DetectEnvironment returns the current process environment.
func DetectEnvironment() Environment {
	return Environment{
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
		Runtime:        "go",
		RuntimeVersion: runtime.Version(),
	}
}
