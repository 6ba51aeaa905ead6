package llm_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/folio/pkg/llm"
)

var _ = Describe("ChatRequest", func() {
	It("omits portfolio_context when nil", func() {
		data, err := json.Marshal(llm.ChatRequest{
			Messages: []llm.ChatMessage{llm.NewUserMessage("hello")},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"messages":[{"role":"user","content":"hello"}]}`))
	})

	It("uses the endpoint's field names for portfolio context", func() {
		data, err := json.Marshal(llm.ChatRequest{
			Messages: []llm.ChatMessage{llm.NewUserMessage("リスクを下げたい")},
			PortfolioContext: &llm.PortfolioContext{
				Strategy:      "balanced",
				RiskTolerance: "moderate",
				Allocations: []llm.Allocation{
					{Symbol: "1306.T", NameJA: "TOPIX連動型上場投信", Weight: 0.4},
				},
				Metrics: map[string]float64{"sharpe_ratio": 0.8},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		var parsed map[string]any
		Expect(json.Unmarshal(data, &parsed)).To(Succeed())

		pc, ok := parsed["portfolio_context"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(pc["risk_tolerance"]).To(Equal("moderate"))

		allocations := pc["allocations"].([]any)
		Expect(allocations).To(HaveLen(1))
		Expect(allocations[0].(map[string]any)["name_ja"]).To(Equal("TOPIX連動型上場投信"))
	})
})
