package handlers

import (
	"net/http"

	"eventboard/internal/logger"
	"eventboard/internal/middleware"
	"eventboard/internal/services"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	events *services.EventService
	log    *logger.Logger
}

func NewEventHandler(events *services.EventService, log *logger.Logger) *EventHandler {
	return &EventHandler{events: events, log: log}
}

func (h *EventHandler) Create(c *gin.Context) {
	var in services.EventInput
	if err := bindJSON(c, &in); err != nil {
		RespondError(c, h.log, err)
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// Detail is open to anonymous callers; the creator also sees attendees.
func (h *EventHandler) Detail(c *gin.Context) {
	id, err := pathID(c, services.MsgInvalidEventID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	detail, err := h.events.GetEvent(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *EventHandler) Register(c *gin.Context) {
	id, err := pathID(c, services.MsgInvalidEventID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	if err := h.events.RegisterAttendance(c.Request.Context(), id, middleware.CurrentUser(c)); err != nil {
		RespondError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "Successfully registered for the event")
}

func (h *EventHandler) Archive(c *gin.Context) {
	id, err := pathID(c, services.MsgInvalidEventID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	already, err := h.events.ArchiveEvent(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	if already {
		message(c, http.StatusOK, "Event already archived")
		return
	}
	message(c, http.StatusOK, "Event successfully archived")
}

func (h *EventHandler) Update(c *gin.Context) {
	id, err := pathID(c, services.MsgInvalidEventID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	var patch services.EventPatch
	if err := bindJSON(c, &patch); err != nil {
		RespondError(c, h.log, err)
		return
	}

	if _, err := h.events.UpdateEvent(c.Request.Context(), id, middleware.CurrentUser(c), patch); err != nil {
		RespondError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "Event successfully updated")
}

// Search handles GET /search?q=&status=&limit=&offset=.
func (h *EventHandler) Search(c *gin.Context) {
	params, err := services.ParseSearchParams(c.Query("q"), c.Query("status"), c.Query("limit"), c.Query("offset"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	results, err := h.events.Search(c.Request.Context(), params, middleware.CurrentUser(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
