package llm

// ChatRequest is the JSON body POSTed to the streaming chat endpoint.
type ChatRequest struct {
	// Messages is the full transcript so far, ending with the new user message.
	Messages []ChatMessage `json:"messages"`

	// PortfolioContext describes the user's current portfolio. Omitted from
	// the request when nil.
	PortfolioContext *PortfolioContext `json:"portfolio_context,omitempty"`
}

// PortfolioContext is the optional portfolio summary the advisor uses to
// ground its answers.
type PortfolioContext struct {
	Strategy      string             `json:"strategy,omitempty" toml:"strategy"`
	RiskTolerance string             `json:"risk_tolerance,omitempty" toml:"risk_tolerance"`
	Allocations   []Allocation       `json:"allocations,omitempty" toml:"allocations"`
	Metrics       map[string]float64 `json:"metrics,omitempty" toml:"metrics"`
}

// Allocation is one asset weight within a PortfolioContext.
type Allocation struct {
	Symbol string  `json:"symbol" toml:"symbol"`
	NameJA string  `json:"name_ja,omitempty" toml:"name_ja"`
	Weight float64 `json:"weight" toml:"weight"`
}
