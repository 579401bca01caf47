package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

const (
	// maxHistory is how many prior turns are forwarded to the model.
	maxHistory = 10

	// offTopicLimit is the number of prior off-topic user turns after which
	// an off-topic message gets the redirect instead of a model answer.
	offTopicLimit = 2
)

const systemPrompt = `Tu es l'assistant virtuel de Homees, une plateforme française qui met en relation des propriétaires avec des gestionnaires immobiliers (agences, conciergeries, gestion locative classique ou courte durée).

Ton rôle :
- expliquer le fonctionnement de Homees aux propriétaires et aux gestionnaires ;
- répondre aux questions sur la gestion locative, les tarifs, les commissions, le DPE et les démarches ;
- orienter l'utilisateur vers l'inscription ou son tableau de bord quand c'est pertinent.

Règles :
- réponds en français, de façon concise et chaleureuse (5 phrases maximum) ;
- n'invente pas de chiffres précis sur Homees ; indique que les tarifs dépendent du gestionnaire choisi ;
- si la question sort du cadre de l'immobilier et de Homees, ramène poliment la conversation vers ces sujets.`

const offTopicHint = "\n\nLe dernier message semble hors sujet : réponds brièvement puis propose de revenir à la gestion de biens immobiliers."

// RedirectMessage is returned without calling the model once the visitor
// keeps asking unrelated questions.
const RedirectMessage = "Je suis l'assistant Homees et je ne peux vous aider que sur la gestion de vos biens immobiliers : trouver un gestionnaire, comprendre nos tarifs, suivre vos demandes… Avez-vous une question sur ces sujets ?"

// FallbackMessage is returned when the model is unavailable.
const FallbackMessage = "Désolé, notre assistant est momentanément indisponible. Vous pouvez consulter notre FAQ ou nous écrire à contact@homees.fr, nous vous répondrons rapidement."

// ErrEmptyMessage is returned when the request carries no message.
var ErrEmptyMessage = errors.New("message is required")

// Request is the body of a chat call.
type Request struct {
	Message             string `json:"message"`
	ConversationHistory []Turn `json:"conversationHistory,omitempty"`
}

// Response is the body returned to the chat widget.
type Response struct {
	Response         string `json:"response"`
	Success          bool   `json:"success"`
	IsHomeeesRelated *bool  `json:"isHomeeesRelated,omitempty"`
	ContextWarning   bool   `json:"contextWarning,omitempty"`
	Fallback         bool   `json:"fallback,omitempty"`
}

// Completer generates the assistant's next message.
type Completer interface {
	Complete(ctx context.Context, system string, history []Turn, message string) (string, error)
}

// Service applies the topic policy around a Completer.
type Service struct {
	completer Completer
}

// NewService creates a chat service. A nil completer makes every reply fall back.
func NewService(completer Completer) *Service {
	return &Service{completer: completer}
}

// Reply answers one visitor message.
func (s *Service) Reply(ctx context.Context, req Request) (Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, ErrEmptyMessage
	}

	related := IsHomeeesRelated(message)

	if !related && CountConsecutiveOffTopic(req.ConversationHistory) >= offTopicLimit {
		slog.Debug("chat redirected after repeated off-topic messages")
		return Response{
			Response:         RedirectMessage,
			Success:          true,
			IsHomeeesRelated: &related,
			ContextWarning:   true,
		}, nil
	}

	fallback := Response{
		Response:         FallbackMessage,
		Success:          false,
		IsHomeeesRelated: &related,
		Fallback:         true,
	}

	if s.completer == nil {
		return fallback, nil
	}

	system := systemPrompt
	if !related {
		system += offTopicHint
	}

	answer, err := s.completer.Complete(ctx, system, recent(req.ConversationHistory), message)
	if err != nil {
		slog.Error("chat completion failed", "error", err)
		return fallback, nil
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		slog.Warn("chat completion returned no content")
		return fallback, nil
	}

	return Response{
		Response:         answer,
		Success:          true,
		IsHomeeesRelated: &related,
	}, nil
}

// recent returns the last maxHistory non-empty turns.
func recent(history []Turn) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Text) != "" {
			turns = append(turns, t)
		}
	}
	if len(turns) > maxHistory {
		turns = turns[len(turns)-maxHistory:]
	}
	return turns
}
