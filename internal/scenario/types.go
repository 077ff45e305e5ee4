package scenario

// Case is one launch of the app under a given grant state.
type Case struct {
	Name string `yaml:"name,omitempty"`
	// Granted lists permissions the platform already reports as granted.
	Granted []string `yaml:"granted,omitempty"`
	// ExpectRequest, when set, must equal the built request in order.
	ExpectRequest []string `yaml:"expect_request,omitempty"`
	// Results is the batch the platform delivers. Omitted permissions count
	// as an interrupted dialog.
	Results map[string]string `yaml:"results,omitempty"`
	// Stale delivers the results under a token that was never issued.
	Stale bool `yaml:"stale,omitempty"`
	// Expect is all_granted, some_denied, mismatch, or none for an empty request.
	Expect string `yaml:"expect,omitempty"`
}

// Scenario is a named collection of permission-gate test cases.
type Scenario struct {
	Name    string `yaml:"name"`
	Profile string `yaml:"profile,omitempty"`
	SDK     int    `yaml:"sdk,omitempty"`
	Cases   []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index           int      `json:"index"`
	Name            string   `json:"name,omitempty"`
	Passed          bool     `json:"passed"`
	ExpectedRequest []string `json:"expected_request,omitempty"`
	ActualRequest   []string `json:"actual_request"`
	Expected        string   `json:"expected,omitempty"`
	Actual          string   `json:"actual"`
	Reason          string   `json:"reason,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File    string       `json:"file"`
	Name    string       `json:"name"`
	Profile string       `json:"profile"`
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Cases   []CaseResult `json:"cases"`
}
