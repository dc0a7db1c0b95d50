package v1handler

import (
	"lending/internal/status"
	"lending/pkg/domain"
	"lending/pkg/serrors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SubmitApplicationRequest is the body of POST /v1/applications.
type SubmitApplicationRequest struct {
	PersonalInfo domain.PersonalInfo `json:"personalInfo"`
	Documents    []domain.DocumentID `json:"documents"`
	LoanDetails  domain.LoanDetails  `json:"loanDetails"`
}

// SubmitApplicationResponse is returned once the application is queued.
type SubmitApplicationResponse struct {
	ApplicationID domain.ApplicationID    `json:"applicationId"`
	State         domain.ApplicationState `json:"state"`
}

// ApplicationList is the body of GET /v1/applications.
type ApplicationList struct {
	Applications []status.Summary `json:"applications"`
}

// SubmitApplication stores the application and answers before underwriting runs.
func (h *Handler) SubmitApplication(c *gin.Context) {
	ctx := c.Request.Context()

	var req SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid payload"))

		return
	}

	app, err := h.deps.Applications.Submit(ctx,
		GetUserIDFromContext(ctx),
		req.PersonalInfo,
		req.Documents,
		req.LoanDetails)
	if err != nil {
		h.abort(c, err)

		return
	}

	c.JSON(http.StatusAccepted, SubmitApplicationResponse{
		ApplicationID: app.ID,
		State:         app.State,
	})
}

// ListApplications returns the caller's applications, newest first.
func (h *Handler) ListApplications(c *gin.Context) {
	ctx := c.Request.Context()

	summaries, err := h.deps.Status.UserApplications(ctx, GetUserIDFromContext(ctx))
	if err != nil {
		h.abort(c, err)

		return
	}

	c.JSON(http.StatusOK, ApplicationList{Applications: summaries})
}

// GetApplication returns the status snapshot of one of the caller's applications.
func (h *Handler) GetApplication(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.abort(c, serrors.Wrap(serrors.ErrBadRequest, err, "invalid application id"))

		return
	}

	app, err := h.deps.Status.Status(ctx, domain.ApplicationID(id))
	if err != nil {
		h.abort(c, err)

		return
	}
	// other users' applications are indistinguishable from unknown ones
	if app.UserID != GetUserIDFromContext(ctx) {
		h.abort(c, serrors.With(serrors.ErrNotFound, "application not found"))

		return
	}

	c.JSON(http.StatusOK, app)
}
