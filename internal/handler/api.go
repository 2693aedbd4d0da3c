package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"student-dashboard/internal/middleware"
	"student-dashboard/internal/model"
	"student-dashboard/internal/records"
	"student-dashboard/internal/session"
	"student-dashboard/internal/workspace"
)

// APIHandler is the JSON mirror of the pages.
type APIHandler struct {
	Cookies middleware.CookieConfig
}

type loginBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func sessionBody(ws *workspace.Workspace) gin.H {
	snap := ws.Session.Snapshot()
	return gin.H{
		"state":    session.StateOf(snap).String(),
		"identity": snap.Identity,
		"route":    ws.Session.Route(),
	}
}

func (h *APIHandler) GetSession(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	if ws.Session.State() == session.StateResolving {
		c.JSON(http.StatusServiceUnavailable, gin.H{"state": session.StateResolving.String()})
		return
	}
	c.JSON(http.StatusOK, sessionBody(ws))
}

func (h *APIHandler) Login(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := ws.Session.Login(c.Request.Context(), body.Email, body.Password); err != nil {
		respondError(c, err, "Invalid credentials")
		return
	}
	middleware.SetTokenCookie(c, h.Cookies, ws.Token())
	c.JSON(http.StatusOK, sessionBody(ws))
}

func (h *APIHandler) Logout(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	if err := ws.Session.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}
	middleware.SetTokenCookie(c, h.Cookies, "")
	c.JSON(http.StatusOK, sessionBody(ws))
}

func (h *APIHandler) controller(c *gin.Context) (*records.Controller, bool) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return nil, false
	}
	ctrl, err := ws.Records(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch students")
		return nil, false
	}
	return ctrl, true
}

// ListStudents returns the current list; ?refresh=true re-lists first.
func (h *APIHandler) ListStudents(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if c.Query("refresh") == "true" {
		if err := ctrl.Refresh(c.Request.Context()); err != nil {
			respondError(c, err, "Failed to fetch students")
			return
		}
	}
	list := ctrl.Records()
	c.JSON(http.StatusOK, gin.H{"students": list, "count": len(list)})
}

func (h *APIHandler) CreateStudent(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var draft model.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	id, err := ctrl.Create(c.Request.Context(), draft)
	if err != nil {
		respondError(c, err, "Failed to add student")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "students": ctrl.Records()})
}

func (h *APIHandler) GetStudent(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	rec, found := ctrl.View(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": msgStudentNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": rec})
}

func (h *APIHandler) UpdateStudent(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var draft model.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	id := c.Param("id")
	if err := ctrl.Update(c.Request.Context(), id, draft); err != nil {
		respondError(c, err, "Failed to update student")
		return
	}
	rec, _ := ctrl.View(id)
	c.JSON(http.StatusOK, gin.H{"student": rec})
}

func (h *APIHandler) DeleteStudent(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete student")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *APIHandler) Stats(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cards":             ctrl.Stats(),
		"classDistribution": records.ClassDistribution(),
	})
}

func (h *APIHandler) Notices(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"notices": ws.Notices.Pending()})
}

func (h *APIHandler) DismissNotice(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	if !ws.Notices.Dismiss(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notice not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
