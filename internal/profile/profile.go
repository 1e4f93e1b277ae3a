// Package profile holds the candidate profile the engine evaluates postings
// against.
package profile

// Candidate describes the person the engine applies on behalf of.
type Candidate struct {
	Name            string   `mapstructure:"name" json:"name"`
	TargetTitles    []string `mapstructure:"target-titles" json:"targetTitles"`
	Skills          []string `mapstructure:"skills" json:"skills"`
	RemoteRequired  bool     `mapstructure:"remote-required" json:"remoteRequired"`
	MinCompensation int      `mapstructure:"min-compensation" json:"minCompensation,omitempty"`
}

// Default returns the built-in profile used when the configuration does not
// provide one.
func Default() *Candidate {
	return &Candidate{
		Name:            "Default Candidate",
		TargetTitles:    []string{"Software Engineer", "Full Stack Engineer", "Platform Engineer"},
		Skills:          []string{"go", "typescript", "api design", "distributed systems"},
		RemoteRequired:  true,
		MinCompensation: 150000,
	}
}
