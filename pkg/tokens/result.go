package tokens

import (
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Level is the three-tier verdict. The zero value is Pass and the ordering
// Pass < Warning < Error is used for aggregation.
type Level int

const (
	LevelPass Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelPass:
		return "Pass"
	case LevelWarning:
		return "Warning"
	case LevelError:
		return "Error"
	}
	return "Unknown"
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "pass":
		*l = LevelPass
	case "warning":
		*l = LevelWarning
	case "error":
		*l = LevelError
	default:
		return errors.Errorf("unknown validation level %q", string(b))
	}
	return nil
}

// ValidationResult is the verdict returned by every validator. Rationale is the
// audit trail for the decision and is always populated.
type ValidationResult struct {
	Level                 Level    `json:"level"`
	Token                 string   `json:"token"`
	Message               string   `json:"message"`
	Rationale             string   `json:"rationale"`
	MathematicalReasoning string   `json:"mathematicalReasoning"`
	Suggestions           []string `json:"suggestions,omitempty"`
}

func Pass(token, message, rationale, reasoning string) ValidationResult {
	return ValidationResult{Level: LevelPass, Token: token, Message: message, Rationale: rationale, MathematicalReasoning: reasoning}
}

func Warning(token, message, rationale, reasoning string, suggestions ...string) ValidationResult {
	return ValidationResult{Level: LevelWarning, Token: token, Message: message, Rationale: rationale, MathematicalReasoning: reasoning, Suggestions: suggestions}
}

func Error(token, message, rationale, reasoning string, suggestions ...string) ValidationResult {
	return ValidationResult{Level: LevelError, Token: token, Message: message, Rationale: rationale, MathematicalReasoning: reasoning, Suggestions: suggestions}
}

// HighestLevel returns the most severe level among results, Pass for none.
func HighestLevel(results ...ValidationResult) Level {
	highest := LevelPass
	for _, r := range results {
		if r.Level > highest {
			highest = r.Level
		}
	}
	return highest
}

// Aggregate folds results into one verdict: the highest level wins, the message
// comes from the first result at that level, rationales are concatenated and
// suggestions deduplicated in order.
func Aggregate(token string, results ...ValidationResult) ValidationResult {
	if len(results) == 0 {
		return Pass(token, "No validation checks were run", "Nothing to aggregate", "No mathematical constraints evaluated")
	}

	level := HighestLevel(results...)
	out := ValidationResult{Level: level, Token: token}

	var rationales, reasoning []string
	seen := map[string]bool{}
	for _, r := range results {
		if out.Message == "" && r.Level == level {
			out.Message = r.Message
		}
		if r.Rationale != "" {
			rationales = append(rationales, r.Rationale)
		}
		if r.MathematicalReasoning != "" {
			reasoning = append(reasoning, r.MathematicalReasoning)
		}
		for _, s := range r.Suggestions {
			if !seen[s] {
				seen[s] = true
				out.Suggestions = append(out.Suggestions, s)
			}
		}
	}
	out.Rationale = strings.Join(rationales, "; ")
	out.MathematicalReasoning = strings.Join(reasoning, "; ")
	return out
}

// Counts tallies results per level.
type Counts struct {
	Total   int `json:"total"`
	Pass    int `json:"pass"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

func CountLevels(results []ValidationResult) Counts {
	c := Counts{Total: len(results)}
	for _, r := range results {
		switch r.Level {
		case LevelPass:
			c.Pass++
		case LevelWarning:
			c.Warning++
		case LevelError:
			c.Error++
		}
	}
	return c
}

// SortedRoles returns the keys of a reference map in a stable order.
func SortedRoles(refs map[string]string) []string {
	roles := make([]string, 0, len(refs))
	for r := range refs {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}
