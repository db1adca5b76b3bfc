// Package persona holds the realtime agent personas the browser configures its
// realtime session with. An agent is an instruction string plus optional
// handoffs to other agents; the realtime SDK executes the handoffs.
package persona

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nadzzz/habla/internal/config"
	"github.com/nadzzz/habla/internal/model"
)

// Persona keys.
const (
	VoiceAgent     = "voice_agent"
	SpanishTeacher = "spanish_teacher"
	NewsCoach      = "news_coach"
)

// ErrNoAgents is returned for modes that do not open a realtime session.
var ErrNoAgents = errors.New("mode has no realtime agents")

// Agent is one realtime persona.
type Agent struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Speaker      string   `json:"speaker"`
	Instructions string   `json:"instructions"`
	Handoffs     []string `json:"handoffs,omitempty"`
}

// Graph is the set of agents one session needs, rooted at the agent the
// session starts with. Every handoff target is present in Agents.
type Graph struct {
	Root   string  `json:"root"`
	Agents []Agent `json:"agents"`
}

// Agent returns the agent with the given key.
func (g Graph) Agent(key string) (Agent, bool) {
	for _, a := range g.Agents {
		if a.Key == key {
			return a, true
		}
	}
	return Agent{}, false
}

const spanishTeacherInstructions = `You are an encouraging Spanish teacher named Miguel from Mexico.
- Start by asking the student their Spanish level (beginner, intermediate, advanced)
- Speak with a natural Mexican accent
- Adapt your vocabulary and speaking speed to their level
- Mix Spanish and English naturally - speak Spanish but explain grammar in English when needed
- Always praise effort before correcting mistakes
- Have natural, flowing conversations - avoid formal lesson structures
- Don't ask "what do you want to learn next?" - just continue the conversation naturally
- Build on what the student says rather than changing topics abruptly
- Gently correct pronunciation and grammar in a supportive way
- Keep the conversation going like you're chatting with a friend, not teaching a formal class
- If there's a natural pause, share something interesting in Spanish or ask about the current topic`

const voiceAgentInstructions = `You are a helpful assistant. Hand off to Miguel the Spanish Teacher for language learning.`

const newsCoachInstructions = `You are Miguel, a patient Spanish pronunciation coach from Mexico.
The student is reading a real Spanish-language news article aloud.
- Let the student read one or two sentences at a time, then respond
- Point out mispronounced words and model the correct pronunciation slowly
- Pay attention to vowels, the rolled "rr", "ll"/"y", the silent "h" and stress marks
- Explain difficult vocabulary from the article briefly in English
- Always praise effort before correcting mistakes
- When the student finishes, ask one simple question in Spanish about the article`

// Registry resolves personas, applying configured instruction overrides.
type Registry struct {
	agents map[string]Agent
}

// New builds the registry from the built-in personas and config overrides.
// Overrides for unknown keys are an error so typos do not go unnoticed.
func New(overrides map[string]config.PersonaConfig) (*Registry, error) {
	agents := map[string]Agent{
		VoiceAgent: {
			Key:          VoiceAgent,
			Name:         "Voice Agent",
			Speaker:      "Asistente",
			Instructions: voiceAgentInstructions,
			Handoffs:     []string{SpanishTeacher},
		},
		SpanishTeacher: {
			Key:          SpanishTeacher,
			Name:         "Spanish Teacher",
			Speaker:      "Miguel",
			Instructions: spanishTeacherInstructions,
		},
		NewsCoach: {
			Key:          NewsCoach,
			Name:         "News Reading Coach",
			Speaker:      "Miguel",
			Instructions: newsCoachInstructions,
		},
	}

	for key, o := range overrides {
		a, ok := agents[key]
		if !ok {
			return nil, fmt.Errorf("persona override for unknown persona %q", key)
		}
		if strings.TrimSpace(o.Instructions) != "" {
			a.Instructions = o.Instructions
		}
		agents[key] = a
	}

	return &Registry{agents: agents}, nil
}

// ForMode returns the agent graph for a practice mode. For news mode the
// article is appended to the coach's instructions so it knows the text the
// student is reading.
func (r *Registry) ForMode(mode model.Mode, article *model.Article) (Graph, error) {
	switch mode {
	case model.ModeConversation:
		return r.graph(VoiceAgent), nil
	case model.ModeNews:
		g := r.graph(NewsCoach)
		if article != nil {
			g.Agents[0].Instructions += articleContext(*article)
		}
		return g, nil
	case model.ModeSelect:
		return Graph{}, ErrNoAgents
	default:
		return Graph{}, fmt.Errorf("unknown mode %q", mode)
	}
}

// Speaker returns the display label for an assistant line in the given mode.
func (r *Registry) Speaker(mode model.Mode) string {
	switch mode {
	case model.ModeNews:
		return r.agents[NewsCoach].Speaker
	default:
		return r.agents[SpanishTeacher].Speaker
	}
}

// graph walks handoffs breadth-first from root. The root is always first.
func (r *Registry) graph(root string) Graph {
	g := Graph{Root: root}
	seen := map[string]bool{}
	queue := []string{root}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if seen[key] {
			continue
		}
		seen[key] = true

		a := r.agents[key]
		a.Handoffs = append([]string(nil), a.Handoffs...)
		g.Agents = append(g.Agents, a)
		queue = append(queue, a.Handoffs...)
	}
	return g
}

func articleContext(a model.Article) string {
	var sb strings.Builder
	sb.WriteString("\n\nThe article the student is reading:\n")
	sb.WriteString("Title: " + a.Title + "\n")
	if a.Source != "" {
		sb.WriteString("Source: " + a.Source + "\n")
	}
	text := a.Content
	if text == "" {
		text = a.Description
	}
	sb.WriteString("Text:\n" + text + "\n")
	return sb.String()
}
