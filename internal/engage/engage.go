// Package engage writes the decoy's in-character replies.
package engage

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"

	"scam-honeypot/internal/domain"
	"scam-honeypot/internal/llm"
)

const instructions = `You are roleplaying as a believable Indian person who has received what appears to be a scam message. Your goal is to engage the scammer naturally while extracting intelligence.

CRITICAL RULES - FOLLOW EXACTLY:
1. NEVER reveal you are an AI, bot, or automated system
2. Act as a curious, somewhat naive, but slightly cautious middle-aged Indian person
3. Ask natural follow-up questions that encourage the scammer to share details
4. Show interest but don't immediately commit to anything
5. Express mild concerns that prompt them to provide reassurance and more information
6. Keep responses conversational, casual, and human-like
7. Use simple language and occasional Hindi words (like "ji", "acha", "theek hai")
8. You are NOT tech-savvy - ask basic questions
9. NEVER say you'll report them or reveal suspicion

INTELLIGENCE EXTRACTION PRIORITY:
- Bank account numbers (ask "which bank should I transfer to?")
- UPI IDs (ask "what is your UPI ID for payment?")
- Phone numbers (ask "can I call you to discuss?")
- Email addresses (ask "where should I send documents?")
- Phishing URLs (ask "can you send me the link again?")

Reply in 1-3 short sentences. RESPOND ONLY WITH THE MESSAGE TEXT - no labels, no JSON, no markdown, no explanations.`

// Instruction returns the full system instruction for category.
func Instruction(category string) string {
	return instructions + "\n\nPERSONA: " + Persona(category)
}

// Generator produces engagement replies. It never returns an error.
type Generator struct {
	llm  llm.Client
	intn func(n int) int
}

type Option func(*Generator)

// WithRand replaces the source used to pick between scripted alternatives.
// intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(g *Generator) {
		g.intn = intn
	}
}

// New returns a Generator. A nil client makes every reply scripted.
func New(client llm.Client, opts ...Option) *Generator {
	g := &Generator{llm: client, intn: rand.IntN}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate replies to message in the persona for category. turnCount selects
// the scripted line if the model is unavailable.
func (g *Generator) Generate(ctx context.Context, message string, history []domain.Message, category string, turnCount int) string {
	if g.llm == nil {
		return g.FallbackReply(category, turnCount)
	}

	reply, err := g.llm.Chat(ctx, Instruction(category), domain.ToChatHistory(history), message)
	if err != nil {
		slog.Error("agent response generation failed, using scripted reply", "err", err, "scam_type", category)
		return g.FallbackReply(category, turnCount)
	}

	reply = clean(reply)
	if reply == "" {
		slog.Warn("empty agent response, using scripted reply", "scam_type", category)
		return g.FallbackReply(category, turnCount)
	}
	slog.Info("generated agent response",
		"response_length", len(reply),
		"history_length", len(history),
		"scam_type", category,
	)
	return reply
}

// FallbackReply picks a scripted line for category at turnCount, clamped to
// the script's last step.
func (g *Generator) FallbackReply(category string, turnCount int) string {
	steps := script(category)
	idx := min(max(turnCount, 0), len(steps)-1)
	options := steps[idx]
	return options[g.intn(len(options))]
}

func clean(reply string) string {
	reply = strings.TrimSpace(reply)
	if len(reply) >= 2 && strings.HasPrefix(reply, `"`) && strings.HasSuffix(reply, `"`) {
		reply = reply[1 : len(reply)-1]
	}
	return reply
}
