package adapthttp

import (
	"errors"
	"net/http"
	"strings"

	"dashboard/internal/app"
)

type resultResponse struct {
	Result string `json:"result"`
}

func (s *Server) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Model       string            `json:"model"`
		Messages    []app.ChatMessage `json:"messages"`
		MaxTokens   int               `json:"max_tokens"`
		Temperature float64           `json:"temperature"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("messages are required"))
		return
	}

	result, err := s.upstream.CompleteText(r.Context(), app.TextParams{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		s.upstreamError(w, r, "generate-text", err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Prompt         string `json:"prompt"`
		N              int    `json:"n"`
		Size           string `json:"size"`
		ResponseFormat string `json:"response_format"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, errors.New("prompt is required"))
		return
	}

	result, err := s.upstream.CreateImage(r.Context(), app.ImageParams{
		Prompt:         req.Prompt,
		N:              req.N,
		Size:           req.Size,
		ResponseFormat: req.ResponseFormat,
	})
	if err != nil {
		s.upstreamError(w, r, "generate-image", err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		user, _ := userFrom(r.Context())
		s.log.Error(r.Context(), "upstream failed", "op", op, "username", user.Username, "error", err)
	}
	writeError(w, status, err)
}
