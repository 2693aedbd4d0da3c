package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"student-dashboard/internal/middleware"
	"student-dashboard/internal/model"
	"student-dashboard/internal/notify"
	"student-dashboard/internal/records"
	"student-dashboard/internal/session"
	"student-dashboard/internal/workspace"
)

// PageHandler serves the HTML surface. Mutations redirect back to the page
// so that controller state, not the request, drives what is rendered.
type PageHandler struct {
	Cookies middleware.CookieConfig
}

type loginPage struct {
	Notices []notify.Notification
}

type studentsPage struct {
	Email      string
	Records    []model.StudentRecord
	Stats      []records.StatCard
	Chart      []records.DistributionPoint
	DialogOpen bool
	Draft      model.Draft
	EditingID  string
	Notices    []notify.Notification
}

type studentPage struct {
	Email   string
	Record  model.StudentRecord
	Notices []notify.Notification
}

// gate applies the navigation decision for route. It reports false when the
// response has already been written.
func (h *PageHandler) gate(c *gin.Context, ws *workspace.Workspace, route string) bool {
	decision := session.Gate(ws.Session.Snapshot(), route)
	switch {
	case decision.Pending:
		c.HTML(http.StatusOK, "pending.html", nil)
		return false
	case decision.Redirect != "":
		c.Redirect(http.StatusSeeOther, decision.Redirect)
		return false
	}
	return true
}

func (h *PageHandler) records(c *gin.Context, ws *workspace.Workspace) (*records.Controller, bool) {
	if !h.gate(c, ws, session.RouteRecords) {
		return nil, false
	}
	ctrl, err := ws.Records(c.Request.Context())
	if err != nil {
		c.Redirect(http.StatusSeeOther, session.RouteEntry)
		return nil, false
	}
	return ctrl, true
}

func (h *PageHandler) back(c *gin.Context, ws *workspace.Workspace) {
	route := ws.Session.Route()
	if route == "" {
		route = session.RouteEntry
	}
	c.Redirect(http.StatusSeeOther, route)
}

func email(ws *workspace.Workspace) string {
	if id := ws.Session.Snapshot().Identity; id != nil {
		return id.Email
	}
	return ""
}

func (h *PageHandler) Entry(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok || !h.gate(c, ws, session.RouteEntry) {
		return
	}
	c.HTML(http.StatusOK, "login.html", loginPage{Notices: ws.Notices.Pending()})
}

func (h *PageHandler) Login(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	var body loginBody
	_ = c.ShouldBind(&body)

	// Failures are already queued as notices.
	if err := ws.Session.Login(c.Request.Context(), body.Email, body.Password); err == nil {
		middleware.SetTokenCookie(c, h.Cookies, ws.Token())
	}
	h.back(c, ws)
}

// LoginRateLimited renders a rejected login like any other failed attempt.
func (h *PageHandler) LoginRateLimited(c *gin.Context) {
	if ws, ok := middleware.WorkspaceFromContext(c); ok {
		ws.Notices.Failure("Too many login attempts. Please try again later.")
	}
	c.Redirect(http.StatusSeeOther, session.RouteEntry)
}

func (h *PageHandler) Logout(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	if err := ws.Session.Logout(c.Request.Context()); err == nil {
		middleware.SetTokenCookie(c, h.Cookies, "")
	}
	h.back(c, ws)
}

func (h *PageHandler) Students(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	ctrl, ok := h.records(c, ws)
	if !ok {
		return
	}
	if c.Query("dialog") == "new" {
		ctrl.OpenDialog()
	}

	c.HTML(http.StatusOK, "students.html", studentsPage{
		Email:      email(ws),
		Records:    ctrl.Records(),
		Stats:      ctrl.Stats(),
		Chart:      records.ClassDistribution(),
		DialogOpen: ctrl.DialogOpen(),
		Draft:      ctrl.Draft(),
		EditingID:  ctrl.EditingID(),
		Notices:    ws.Notices.Pending(),
	})
}

func (h *PageHandler) CreateStudent(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	ctrl, ok := h.records(c, ws)
	if !ok {
		return
	}
	var draft model.Draft
	_ = c.ShouldBind(&draft)
	_, _ = ctrl.Create(c.Request.Context(), draft)
	c.Redirect(http.StatusSeeOther, session.RouteRecords)
}

func (h *PageHandler) DismissDialog(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	ctrl, ok := h.records(c, ws)
	if !ok {
		return
	}
	ctrl.DismissDialog()
	c.Redirect(http.StatusSeeOther, session.RouteRecords)
}

func (h *PageHandler) ViewStudent(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	ctrl, ok := h.records(c, ws)
	if !ok {
		return
	}
	rec, found := ctrl.View(c.Param("id"))
	if !found {
		c.HTML(http.StatusNotFound, "student.html", studentPage{Email: email(ws), Notices: ws.Notices.Pending()})
		return
	}
	c.HTML(http.StatusOK, "student.html", studentPage{Email: email(ws), Record: rec, Notices: ws.Notices.Pending()})
}

func (h *PageHandler) EditStudent(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	ctrl, ok := h.records(c, ws)
	if !ok {
		return
	}
	if _, err := ctrl.BeginEdit(c.Param("id")); err != nil {
		ws.Notices.Failure(msgStudentNotFound)
	}
	c.Redirect(http.StatusSeeOther, session.RouteRecords)
}

func (h *PageHandler) UpdateStudent(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	ctrl, ok := h.records(c, ws)
	if !ok {
		return
	}
	var draft model.Draft
	_ = c.ShouldBind(&draft)
	_ = ctrl.Update(c.Request.Context(), c.Param("id"), draft)
	c.Redirect(http.StatusSeeOther, session.RouteRecords)
}

func (h *PageHandler) DeleteStudent(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	ctrl, ok := h.records(c, ws)
	if !ok {
		return
	}
	_ = ctrl.Delete(c.Request.Context(), c.Param("id"))
	c.Redirect(http.StatusSeeOther, session.RouteRecords)
}

func (h *PageHandler) DismissNotice(c *gin.Context) {
	ws, ok := mustWorkspace(c)
	if !ok {
		return
	}
	ws.Notices.Dismiss(c.Param("id"))
	h.back(c, ws)
}
