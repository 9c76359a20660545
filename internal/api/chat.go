package api

import (
	"net/http"

	"github.com/socialchef/leftovers/internal/services/chat"
	"github.com/socialchef/leftovers/internal/validation"
)

type AskRequest struct {
	Question string `json:"question"`
}

type ChatResponse struct {
	Messages []chat.Message `json:"messages"`
}

// HandleAsk returns only the messages this question appended. A failed
// answer is part of the transcript, not an HTTP error.
func (s *Server) HandleAsk(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	question, err := validation.ValidateQuestion(req.Question)
	if err != nil {
		writeError(w, r, err)
		return
	}

	delta := s.chat.Get(userID).Send(r.Context(), question)
	writeJSON(w, http.StatusOK, ChatResponse{Messages: delta})
}

func (s *Server) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	messages := s.chat.Get(userID).Transcript()
	if messages == nil {
		messages = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, ChatResponse{Messages: messages})
}
