// Copyright 2025 Prompt Enhancer Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/prompt-enhancer/internal/auth"
	"github.com/your-org/prompt-enhancer/internal/config"
	"github.com/your-org/prompt-enhancer/internal/enhance"
	"github.com/your-org/prompt-enhancer/internal/health"
	"github.com/your-org/prompt-enhancer/internal/mode"
	"github.com/your-org/prompt-enhancer/internal/pipeline"
	"github.com/your-org/prompt-enhancer/internal/provider"
	"github.com/your-org/prompt-enhancer/internal/questions"
	"github.com/your-org/prompt-enhancer/internal/session"
	"github.com/your-org/prompt-enhancer/internal/store"
	"go.uber.org/zap"
)

// server wires the pipeline, session store, and persistence behind the HTTP
// API.
type server struct {
	config       *config.Config
	logger       *zap.Logger
	registry     *provider.Registry
	sessions     *session.Manager
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	health       *health.Manager
}

func (s *server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	api.POST("/questions", s.handleQuestions)
	api.POST("/enhance", s.handleEnhance)

	api.GET("/history", s.handleListHistory)
	api.GET("/history/:id", s.handleGetHistory)
	api.DELETE("/history/:id", s.handleDeleteHistory)

	api.POST("/conversations", s.handleCreateConversation)
	api.GET("/conversations", s.handleListConversations)
	api.GET("/conversations/:id", s.handleGetConversation)
	api.PUT("/conversations/:id", s.handleUpdateConversation)
	api.DELETE("/conversations/:id", s.handleDeleteConversation)
	api.POST("/conversations/:id/messages", s.handleAppendMessage)
	api.PUT("/conversations/:id/move", s.handleMoveConversation)

	api.POST("/folders", s.handleCreateFolder)
	api.GET("/folders", s.handleListFolders)
	api.DELETE("/folders/:id", s.handleDeleteFolder)
}

func (s *server) handleHealth(c *gin.Context) {
	s.health.HTTPHandler().ServeHTTP(c.Writer, c.Request)
}

// QuestionsRequest asks for one round of clarifying questions. The client
// carries the full answer history; session_id is optional and only enables
// the server-side turn ledger.
type QuestionsRequest struct {
	Prompt          string   `json:"prompt" binding:"required"`
	Mode            string   `json:"mode"`
	Provider        string   `json:"provider" binding:"required"`
	PreviousAnswers []string `json:"previous_answers"`
	SessionID       string   `json:"session_id"`
}

// QuestionsResponse is one question turn's outcome.
type QuestionsResponse struct {
	SessionID string               `json:"session_id"`
	State     pipeline.State       `json:"state"`
	Questions []questions.Question `json:"questions"`
}

func (s *server) handleQuestions(c *gin.Context) {
	ctx := c.Request.Context()

	var req QuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	sess, ok := s.resolveSession(c, req.SessionID, req.Prompt, req.Mode, req.Provider, req.PreviousAnswers)
	if !ok {
		return
	}

	step, err := s.orchestrator.NextQuestions(ctx, sess)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.saveSession(ctx, sess)

	qs := step.Questions
	if qs == nil {
		qs = []questions.Question{}
	}
	c.JSON(http.StatusOK, QuestionsResponse{
		SessionID: sess.ID,
		State:     step.State,
		Questions: qs,
	})
}

// EnhanceRequest runs the two-stage enhancement over the collected answers.
// When conversation_id is set the exchange is appended to that conversation;
// folder_id alone starts a new conversation in the folder.
type EnhanceRequest struct {
	Prompt         string   `json:"prompt" binding:"required"`
	Mode           string   `json:"mode"`
	Provider       string   `json:"provider" binding:"required"`
	Answers        []string `json:"answers"`
	SessionID      string   `json:"session_id"`
	ConversationID string   `json:"conversation_id"`
	FolderID       string   `json:"folder_id"`
}

func (s *server) handleEnhance(c *gin.Context) {
	ctx := c.Request.Context()
	user := auth.CurrentUser(c.Request)

	var req EnhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	conv, ok := s.resolveConversation(c, &req)
	if !ok {
		return
	}

	sess, ok := s.resolveSession(c, req.SessionID, req.Prompt, req.Mode, req.Provider, req.Answers)
	if !ok {
		return
	}

	step, err := s.orchestrator.Finalize(ctx, sess)
	if err != nil {
		s.renderError(c, err)
		return
	}

	// The session is spent once a result exists
	if err := s.sessions.Delete(ctx, sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
		s.logger.Warn("Failed to delete completed session",
			zap.String("session_id", sess.ID), zap.Error(err))
	}

	// Persistence failure never invalidates the result
	if !user.Incognito() {
		_, err := s.store.SaveEnhancement(ctx, store.EnhancementRecord{
			UserID:         user.ID,
			OriginalPrompt: step.Result.OriginalPrompt,
			EnhancedPrompt: step.Result.EnhancedPrompt,
			AIResponse:     step.Result.AIResponse,
			Mode:           string(step.Result.Mode),
			Provider:       string(step.Result.Provider),
			Answers:        step.Result.Answers,
		})
		if err != nil {
			s.logger.Warn("Failed to save enhancement result",
				zap.String("user_id", user.ID), zap.Error(err))
		}
		if conv != nil {
			s.appendExchange(ctx, conv.ID, step.Result)
		}
	}

	c.JSON(http.StatusOK, step.Result)
}

// resolveConversation locates or creates the conversation an enhancement
// should be recorded in. Both paths require a durable identity and verified
// ownership; a nil conversation with ok=true means nothing gets recorded.
func (s *server) resolveConversation(c *gin.Context, req *EnhanceRequest) (*store.Conversation, bool) {
	ctx := c.Request.Context()

	if req.ConversationID != "" {
		return s.conversationForUser(c, req.ConversationID)
	}
	if req.FolderID == "" {
		return nil, true
	}

	user, ok := s.requireUser(c)
	if !ok {
		return nil, false
	}
	owned, err := s.ownsFolder(ctx, user.ID, req.FolderID)
	if err != nil {
		s.logger.Error("Failed to list folders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve folder"})
		return nil, false
	}
	if !owned {
		c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
		return nil, false
	}

	conv, err := s.store.CreateConversation(ctx, user.ID, req.FolderID, session.GenerateTitle(req.Prompt))
	if err != nil {
		s.logger.Error("Failed to create conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
		return nil, false
	}
	return conv, true
}

// appendExchange records the prompt and response as a message pair. Failures
// are logged and swallowed.
func (s *server) appendExchange(ctx context.Context, conversationID string, result *enhance.Result) {
	for _, msg := range []store.Message{
		{ConversationID: conversationID, Role: "user", Content: result.OriginalPrompt},
		{ConversationID: conversationID, Role: "assistant", Content: result.AIResponse},
	} {
		if _, err := s.store.AppendMessage(ctx, msg); err != nil {
			s.logger.Warn("Failed to record enhancement exchange",
				zap.String("conversation_id", conversationID), zap.Error(err))
			return
		}
	}
}

// resolveSession loads the session when an ID is supplied and cross-checks it
// against the request, or builds a fresh one. It writes the error response
// itself and returns false on failure.
func (s *server) resolveSession(c *gin.Context, sessionID, prompt, modeStr, providerStr string, answers []string) (*pipeline.Session, bool) {
	ctx := c.Request.Context()
	user := auth.CurrentUser(c.Request)

	providerName, err := provider.ParseName(providerStr)
	if err != nil {
		s.renderError(c, err)
		return nil, false
	}
	md := mode.Parse(modeStr)

	if len(answers) > questions.MaxTurns {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many answers"})
		return nil, false
	}

	if sessionID != "" {
		sess, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Session not found or expired"})
				return nil, false
			}
			s.renderError(c, err)
			return nil, false
		}
		if sess.OriginalPrompt != prompt {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt does not match session"})
			return nil, false
		}
		sess.Answers = append([]string(nil), answers...)
		return sess, true
	}

	sess, err := s.sessions.Create(ctx, user.ID, prompt, md, providerName)
	if err != nil {
		s.renderError(c, err)
		return nil, false
	}
	sess.Answers = append([]string(nil), answers...)
	return sess, true
}

func (s *server) saveSession(ctx context.Context, sess *pipeline.Session) {
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Warn("Failed to save session",
			zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (s *server) handleListHistory(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	limit := 50
	records, err := s.store.ListEnhancements(ctx, user.ID, limit)
	if err != nil {
		s.logger.Error("Failed to list enhancements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *server) handleGetHistory(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	rec, err := s.store.GetEnhancement(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Enhancement not found"})
			return
		}
		s.logger.Error("Failed to get enhancement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load enhancement"})
		return
	}
	if rec.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Enhancement not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *server) handleDeleteHistory(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	rec, err := s.store.GetEnhancement(ctx, c.Param("id"))
	if err != nil || rec.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Enhancement not found"})
		return
	}
	if err := s.store.DeleteEnhancement(ctx, rec.ID); err != nil {
		s.logger.Error("Failed to delete enhancement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete enhancement"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Enhancement deleted"})
}

// CreateConversationRequest opens a new conversation thread.
type CreateConversationRequest struct {
	Title    string `json:"title"`
	FolderID string `json:"folder_id"`
}

func (s *server) handleCreateConversation(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Title == "" {
		req.Title = session.DefaultConversationTitle
	}

	conv, err := s.store.CreateConversation(ctx, user.ID, req.FolderID, req.Title)
	if err != nil {
		s.logger.Error("Failed to create conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (s *server) handleListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	conversations, err := s.store.ListConversations(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to list conversations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// ConversationDetail is a conversation with its full message history.
type ConversationDetail struct {
	store.Conversation
	Messages []store.Message `json:"messages"`
}

func (s *server) handleGetConversation(c *gin.Context) {
	ctx := c.Request.Context()

	conv, ok := s.ownedConversation(c)
	if !ok {
		return
	}

	messages, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		s.logger.Error("Failed to list messages",
			zap.String("conversation_id", conv.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation"})
		return
	}
	c.JSON(http.StatusOK, ConversationDetail{Conversation: *conv, Messages: messages})
}

func (s *server) handleUpdateConversation(c *gin.Context) {
	ctx := c.Request.Context()

	conv, ok := s.ownedConversation(c)
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := s.store.UpdateConversationTitle(ctx, conv.ID, req.Title); err != nil {
		s.logger.Error("Failed to update conversation title",
			zap.String("conversation_id", conv.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation updated"})
}

func (s *server) handleDeleteConversation(c *gin.Context) {
	ctx := c.Request.Context()

	conv, ok := s.ownedConversation(c)
	if !ok {
		return
	}

	if err := s.store.DeleteConversation(ctx, conv.ID); err != nil {
		s.logger.Error("Failed to delete conversation",
			zap.String("conversation_id", conv.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted"})
}

// AppendMessageRequest adds one message to a conversation.
type AppendMessageRequest struct {
	Role           string `json:"role" binding:"required"`
	Content        string `json:"content" binding:"required"`
	IsQuestion     bool   `json:"is_question"`
	QuestionData   string `json:"question_data"`
	SelectedAnswer string `json:"selected_answer"`
}

func (s *server) handleAppendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	conv, ok := s.ownedConversation(c)
	if !ok {
		return
	}

	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Role != "user" && req.Role != "assistant" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be user or assistant"})
		return
	}

	msg, err := s.store.AppendMessage(ctx, store.Message{
		ConversationID: conv.ID,
		Role:           req.Role,
		Content:        req.Content,
		IsQuestion:     req.IsQuestion,
		QuestionData:   req.QuestionData,
		SelectedAnswer: req.SelectedAnswer,
	})
	if err != nil {
		s.logger.Error("Failed to append message",
			zap.String("conversation_id", conv.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	// First user message names an untitled conversation
	if req.Role == "user" && conv.Title == session.DefaultConversationTitle {
		if err := s.store.UpdateConversationTitle(ctx, conv.ID, session.GenerateTitle(req.Content)); err != nil {
			s.logger.Warn("Failed to title conversation",
				zap.String("conversation_id", conv.ID), zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, msg)
}

func (s *server) handleMoveConversation(c *gin.Context) {
	ctx := c.Request.Context()

	conv, ok := s.ownedConversation(c)
	if !ok {
		return
	}

	var req struct {
		FolderID string `json:"folder_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := s.store.MoveConversation(ctx, conv.ID, req.FolderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
			return
		}
		s.logger.Error("Failed to move conversation",
			zap.String("conversation_id", conv.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation moved"})
}

func (s *server) handleCreateFolder(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	folder, err := s.store.CreateFolder(ctx, user.ID, req.Name)
	if err != nil {
		s.logger.Error("Failed to create folder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create folder"})
		return
	}
	c.JSON(http.StatusCreated, folder)
}

func (s *server) handleListFolders(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	folders, err := s.store.ListFolders(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to list folders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load folders"})
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (s *server) handleDeleteFolder(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	owned, err := s.ownsFolder(ctx, user.ID, id)
	if err != nil {
		s.logger.Error("Failed to list folders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete folder"})
		return
	}
	if !owned {
		c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
		return
	}

	if err := s.store.DeleteFolder(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
			return
		}
		s.logger.Error("Failed to delete folder", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete folder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted"})
}

// ownsFolder reports whether the folder belongs to the user.
func (s *server) ownsFolder(ctx context.Context, userID, folderID string) (bool, error) {
	folders, err := s.store.ListFolders(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, f := range folders {
		if f.ID == folderID {
			return true, nil
		}
	}
	return false, nil
}

// requireUser rejects requests without a durable identity. Incognito callers
// can still use the pipeline endpoints, just not anything persisted.
func (s *server) requireUser(c *gin.Context) (auth.User, bool) {
	user := auth.CurrentUser(c.Request)
	if user.Incognito() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User identity required"})
		return auth.User{}, false
	}
	return user, true
}

// ownedConversation loads the conversation in the path and verifies the
// caller owns it.
func (s *server) ownedConversation(c *gin.Context) (*store.Conversation, bool) {
	return s.conversationForUser(c, c.Param("id"))
}

// conversationForUser loads a conversation and verifies the caller owns it.
// Ownership failures are reported as not-found so IDs do not leak across
// users.
func (s *server) conversationForUser(c *gin.Context, id string) (*store.Conversation, bool) {
	ctx := c.Request.Context()
	user, ok := s.requireUser(c)
	if !ok {
		return nil, false
	}

	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return nil, false
		}
		s.logger.Error("Failed to get conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation"})
		return nil, false
	}
	if conv.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return nil, false
	}
	return conv, true
}

// renderError maps pipeline errors onto HTTP statuses. Upstream bodies are
// already truncated before they reach an error message.
func (s *server) renderError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	var validationErr *provider.ValidationError
	var configErr *provider.ConfigurationError
	var upstreamErr *provider.UpstreamError
	var aggregateErr *provider.AggregateError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &configErr):
		return http.StatusUnauthorized
	// AggregateError unwraps to the last candidate's UpstreamError, so it
	// must win the match.
	case errors.As(err, &aggregateErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstreamErr):
		if upstreamErr.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
