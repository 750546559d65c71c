package handlers

import (
	"net/http"

	"eventboard/internal/logger"
	"eventboard/internal/middleware"
	"eventboard/internal/models"
	"eventboard/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	questions *services.QuestionService
	log       *logger.Logger
}

func NewVoteHandler(questions *services.QuestionService, log *logger.Logger) *VoteHandler {
	return &VoteHandler{questions: questions, log: log}
}

// Upvote handles POST /question/:id/vote.
func (h *VoteHandler) Upvote(c *gin.Context) {
	h.vote(c, models.VoteUp, "Upvoted successfully")
}

// Downvote handles DELETE /question/:id/vote.
func (h *VoteHandler) Downvote(c *gin.Context) {
	h.vote(c, models.VoteDown, "Downvoted successfully")
}

func (h *VoteHandler) vote(c *gin.Context, direction int, okMsg string) {
	id, err := pathID(c, services.MsgInvalidQuestionID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	if err := h.questions.Vote(c.Request.Context(), id, middleware.CurrentUser(c), direction); err != nil {
		RespondError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, okMsg)
}
