package handlers

import (
	"net/http"

	"eventboard/internal/logger"
	"eventboard/internal/middleware"
	"eventboard/internal/services"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	questions *services.QuestionService
	log       *logger.Logger
}

func NewQuestionHandler(questions *services.QuestionService, log *logger.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, log: log}
}

// Ask handles POST /event/:id/question.
func (h *QuestionHandler) Ask(c *gin.Context) {
	eventID, err := pathID(c, services.MsgInvalidEventID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	var in services.QuestionInput
	if err := bindJSON(c, &in); err != nil {
		RespondError(c, h.log, err)
		return
	}

	question, err := h.questions.AskQuestion(c.Request.Context(), eventID, middleware.CurrentUser(c), in)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"question_id": question.ID})
}

// Delete handles DELETE /question/:id.
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, err := pathID(c, services.MsgInvalidQuestionID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	if err := h.questions.DeleteQuestion(c.Request.Context(), id, middleware.CurrentUser(c)); err != nil {
		RespondError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "Question deleted successfully")
}

// List handles GET /event/:id/questions.
func (h *QuestionHandler) List(c *gin.Context) {
	eventID, err := pathID(c, services.MsgInvalidEventID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	list, err := h.questions.ListQuestions(c.Request.Context(), eventID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
