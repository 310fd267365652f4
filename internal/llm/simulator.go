package llm

import "context"

// Simulator stands in for the upstream provider when no credential is
// configured. Every request gets the same deterministic placeholder, so the
// relay keeps answering instead of failing whole conversations.
type Simulator struct{}

func NewSimulator() *Simulator { return &Simulator{} }

func (s *Simulator) Complete(_ context.Context, _ []Message) (Response, error) {
	return Response{Content: notConfiguredReply, Model: "simulation"}, nil
}

func (s *Simulator) Configured() bool { return false }
