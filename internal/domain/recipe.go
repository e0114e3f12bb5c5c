// Package domain defines the core types and interfaces for the brew timer.
// All other packages depend on domain; domain depends on nothing.
package domain

// Method is the explicit recipe-level brewing method. When empty, the
// timeline builder falls back to inspecting stage text.
type Method string

const (
	MethodUnspecified Method = ""
	MethodPourOver    Method = "pourover"
	MethodEspresso    Method = "espresso"
)

// Recipe is a complete brewing recipe.
type Recipe struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Method      Method   `json:"method,omitempty" yaml:"method,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Params      Params   `json:"params" yaml:"params"`
	Version     int      `json:"version,omitempty" yaml:"version,omitempty"`
}

// RecipeSummary is a lightweight view of a recipe for listing.
type RecipeSummary struct {
	ID          string
	Name        string
	Description string
	Method      Method
	Tags        []string
}

// Params holds the brew parameters. Only Stages drives the timer; the rest
// is carried through for display.
type Params struct {
	Coffee    string  `json:"coffee,omitempty" yaml:"coffee,omitempty"`
	Water     string  `json:"water,omitempty" yaml:"water,omitempty"`
	Ratio     string  `json:"ratio,omitempty" yaml:"ratio,omitempty"`
	GrindSize string  `json:"grindSize,omitempty" yaml:"grindSize,omitempty"`
	Temp      string  `json:"temp,omitempty" yaml:"temp,omitempty"`
	Stages    []Stage `json:"stages" yaml:"stages"`
}

// Stage is an author-written recipe step. It is a union of two schemas:
//
//   - canonical: Duration is this stage's own length and Water is this
//     stage's own contribution. Waiting is a separate stage styled "wait".
//   - legacy: Time is cumulative seconds since brew start, PourTime is the
//     optional pouring part of the window, and Water is cumulative.
//
// All numeric fields are optional; missing values degrade to defaults.
type Stage struct {
	Duration *int       `json:"duration,omitempty" yaml:"duration,omitempty"`
	Time     *int       `json:"time,omitempty" yaml:"time,omitempty"`
	PourTime *int       `json:"pourTime,omitempty" yaml:"pourTime,omitempty"`
	Label    string     `json:"label" yaml:"label"`
	Water    string     `json:"water,omitempty" yaml:"water,omitempty"`
	Detail   string     `json:"detail,omitempty" yaml:"detail,omitempty"`
	Style    PourStyle  `json:"pourType,omitempty" yaml:"pourType,omitempty"`
	Valve    ValveState `json:"valveStatus,omitempty" yaml:"valveStatus,omitempty"`
}

// Seconds returns a pointer to n. Handy for building stages in code.
func Seconds(n int) *int { return &n }

// PourStyle tags how water is added during a stage.
type PourStyle string

const (
	StyleCenter     PourStyle = "center"
	StyleCircle     PourStyle = "circle"
	StyleIce        PourStyle = "ice"
	StyleBypass     PourStyle = "bypass"
	StyleWait       PourStyle = "wait"
	StyleExtraction PourStyle = "extraction"
	StyleBeverage   PourStyle = "beverage"
	StyleOther      PourStyle = "other"
)

// Instant reports whether the style is a non-timed addition.
func (p PourStyle) Instant() bool {
	return p == StyleBypass || p == StyleBeverage
}

// ValveState is the position of a switch-style dripper valve.
type ValveState string

const (
	ValveUnset  ValveState = ""
	ValveOpen   ValveState = "open"
	ValveClosed ValveState = "closed"
)
