package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/application/workflow"
	"github.com/for4for/dealer-workflow/internal/domain/budget"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/timeline"
	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
	"github.com/for4for/dealer-workflow/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	facade   workflow.Facade
	exporter port.TimelineExporter
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(facade workflow.Facade, exporter port.TimelineExporter, logger Logger) *Handlers {
	return &Handlers{
		facade:   facade,
		exporter: exporter,
		logger:   logger,
	}
}

// Submit handles POST /api/requests
func (h *Handlers) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	kind, err := domainwf.ParseKind(req.Kind)
	if err != nil {
		h.respondError(c, "submit", err)
		return
	}
	terms, err := req.Campaign.toTerms()
	if err != nil {
		h.respondError(c, "submit", err)
		return
	}
	note, err := cleanText("note", req.Note)
	if err != nil {
		h.respondError(c, "submit", err)
		return
	}

	actor := actorFrom(c)
	dealerID := req.DealerID
	if dealerID == "" && actor.Role == entity.RoleDealer {
		dealerID = actor.DealerID
	}

	out, err := h.facade.Submit(c.Request.Context(), actor, workflow.SubmitCommand{
		Kind:        kind,
		DealerID:    dealerID,
		Title:       utils.SanitizeString(req.Title),
		Payload:     payloadOf(req.Payload),
		Campaign:    terms,
		Note:        note,
		SaveAsDraft: req.SaveAsDraft,
	})
	if err != nil {
		h.respondError(c, "submit", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    out,
	})
}

// List handles GET /api/requests
func (h *Handlers) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}

	kind, err := domainwf.ParseKind(q.Kind)
	if err != nil {
		h.respondError(c, "list", err)
		return
	}
	filter := port.RequestFilter{
		Kind:     kind,
		DealerID: q.DealerID,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.Status != "" {
		if filter.Status, err = domainwf.ParseStatus(kind, q.Status); err != nil {
			h.respondError(c, "list", err)
			return
		}
	}
	if filter.AssignedTo, err = entity.ParseAssignee(q.AssignedTo); err != nil {
		h.respondError(c, "list", err)
		return
	}

	requests, err := h.facade.List(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		h.respondError(c, "list", err)
		return
	}
	if requests == nil {
		requests = []*entity.Request{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ListResponse{Items: requests, Count: len(requests)},
	})
}

// Stats handles GET /api/stats?kind=
func (h *Handlers) Stats(c *gin.Context) {
	kind, err := domainwf.ParseKind(c.Query("kind"))
	if err != nil {
		h.respondError(c, "stats", err)
		return
	}

	counts, err := h.facade.CountByStatus(c.Request.Context(), actorFrom(c), kind)
	if err != nil {
		h.respondError(c, "stats", err)
		return
	}

	resp := StatsResponse{Kind: kind, Counts: counts}
	if resp.Counts == nil {
		resp.Counts = []entity.StatusCount{}
	}
	for _, sc := range counts {
		resp.Total += sc.Count
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    resp,
	})
}

// CheckBudget handles POST /api/budget/check
func (h *Handlers) CheckBudget(c *gin.Context) {
	var req BudgetCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	actor := actorFrom(c)
	q := budget.Query{DealerID: req.DealerID, Amount: req.Amount}
	if q.DealerID == "" && actor.Role == entity.RoleDealer {
		q.DealerID = actor.DealerID
	}
	var err error
	if q.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		h.respondError(c, "check_budget", err)
		return
	}
	if q.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
		h.respondError(c, "check_budget", err)
		return
	}

	res, err := h.facade.CheckBudget(c.Request.Context(), actor, q)
	if err != nil {
		h.respondError(c, "check_budget", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    res,
	})
}

// Get handles GET /api/requests/:kind/:id
func (h *Handlers) Get(c *gin.Context) {
	kind, id, err := pathParams(c)
	if err != nil {
		h.respondError(c, "get", err)
		return
	}

	out, err := h.facade.GetTimeline(c.Request.Context(), actorFrom(c), kind, id)
	if err != nil {
		h.respondError(c, "get", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    out,
	})
}

// Edit handles PUT /api/requests/:kind/:id
func (h *Handlers) Edit(c *gin.Context) {
	kind, id, err := pathParams(c)
	if err != nil {
		h.respondError(c, "edit", err)
		return
	}

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	terms, err := req.Campaign.toTerms()
	if err != nil {
		h.respondError(c, "edit", err)
		return
	}
	if req.Title != nil {
		title := utils.SanitizeString(*req.Title)
		req.Title = &title
	}

	out, err := h.facade.Edit(c.Request.Context(), actorFrom(c), workflow.EditCommand{
		Kind:     kind,
		ID:       id,
		Title:    req.Title,
		Payload:  payloadOf(req.Payload),
		Campaign: terms,
	})
	if err != nil {
		h.respondError(c, "edit", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    out,
	})
}

// Transition handles POST /api/requests/:kind/:id/transitions
func (h *Handlers) Transition(c *gin.Context) {
	kind, id, err := pathParams(c)
	if err != nil {
		h.respondError(c, "transition", err)
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	if req.To == "" && req.Action == "" {
		h.badRequest(c, "either to or action is required", nil)
		return
	}

	cmd := workflow.TransitionCommand{
		Kind:   kind,
		ID:     id,
		Action: domainwf.Trigger(req.Action),
	}
	if req.To != "" {
		if cmd.To, err = domainwf.ParseStatus(kind, req.To); err != nil {
			h.respondError(c, "transition", err)
			return
		}
	}
	if cmd.Note, err = cleanText("note", req.Note); err != nil {
		h.respondError(c, "transition", err)
		return
	}

	out, err := h.facade.Transition(c.Request.Context(), actorFrom(c), cmd)
	if err != nil {
		h.respondError(c, "transition", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    out,
	})
}

// Route handles POST /api/requests/:kind/:id/route
func (h *Handlers) Route(c *gin.Context) {
	kind, id, err := pathParams(c)
	if err != nil {
		h.respondError(c, "route", err)
		return
	}

	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	assignee, err := entity.ParseAssignee(req.Assignee)
	if err != nil {
		h.respondError(c, "route", err)
		return
	}
	note, err := cleanText("note", req.Note)
	if err != nil {
		h.respondError(c, "route", err)
		return
	}

	out, err := h.facade.Route(c.Request.Context(), actorFrom(c), workflow.RouteCommand{
		Kind:     kind,
		ID:       id,
		Assignee: *assignee,
		Note:     note,
	})
	if err != nil {
		h.respondError(c, "route", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    out,
	})
}

// Comment handles POST /api/requests/:kind/:id/comments
func (h *Handlers) Comment(c *gin.Context) {
	kind, id, err := pathParams(c)
	if err != nil {
		h.respondError(c, "comment", err)
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}
	note, err := cleanText("note", req.Note)
	if err != nil {
		h.respondError(c, "comment", err)
		return
	}

	out, err := h.facade.Comment(c.Request.Context(), actorFrom(c), kind, id, note)
	if err != nil {
		h.respondError(c, "comment", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    out,
	})
}

// Timeline handles GET /api/requests/:kind/:id/timeline
func (h *Handlers) Timeline(c *gin.Context) {
	kind, id, err := pathParams(c)
	if err != nil {
		h.respondError(c, "timeline", err)
		return
	}

	out, err := h.facade.GetTimeline(c.Request.Context(), actorFrom(c), kind, id)
	if err != nil {
		h.respondError(c, "timeline", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: TimelineResponse{
			RequestID:    out.Request.ID,
			Status:       out.Request.Status,
			WaitingLabel: timeline.WaitingLabel(kind, out.Request.Status),
			Entries:      out.Timeline,
		},
	})
}

// ExportTimeline handles GET /api/requests/:kind/:id/timeline/export
func (h *Handlers) ExportTimeline(c *gin.Context) {
	kind, id, err := pathParams(c)
	if err != nil {
		h.respondError(c, "export_timeline", err)
		return
	}

	out, err := h.facade.GetTimeline(c.Request.Context(), actorFrom(c), kind, id)
	if err != nil {
		h.respondError(c, "export_timeline", err)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Export(&buf, out.Request, out.Timeline); err != nil {
		h.respondError(c, "export_timeline", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s-timeline.xlsx"`, kind, id))
	c.Data(http.StatusOK, h.exporter.ContentType(), buf.Bytes())
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	if err != nil {
		h.logger.Info("Rejected request", "path", c.Request.URL.Path, "reason", msg, "error", err)
	}
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
	})
}

func pathParams(c *gin.Context) (domainwf.Kind, string, error) {
	kind, err := domainwf.ParseKind(c.Param("kind"))
	if err != nil {
		return "", "", err
	}
	id := c.Param("id")
	if err := utils.ValidateID(id); err != nil {
		return "", "", fmt.Errorf("%w: %v", domainwf.ErrInvalidInput, err)
	}
	return kind, id, nil
}

func cleanText(field, s string) (string, error) {
	s = utils.SanitizeString(s)
	if err := utils.ValidateText(field, s); err != nil {
		return "", fmt.Errorf("%w: %v", domainwf.ErrInvalidInput, err)
	}
	return s, nil
}
