package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core/policy"
	"github.com/minhaescola/backend/core/submission"
	"github.com/minhaescola/backend/core/user"
)

type submissionApi struct {
	svc      submission.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc submission.Service, userSvc user.Service, validate *validator.Validate) {
	api := submissionApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	sg := g.Group("/submissions", jwt)
	sg.POST("", api.create, policyMiddleware(userSvc, policy.ActionCreate, policy.ResourceSubmission))
	sg.GET("", api.query, policyMiddleware(userSvc, policy.ActionList, policy.ResourceSubmission))

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve, policyMiddleware(userSvc, policy.ActionRead, policy.ResourceSubmission))
	dg.PUT("", api.update, policyMiddleware(userSvc, policy.ActionUpdate, policy.ResourceSubmission))
	dg.DELETE("", api.destroy, policyMiddleware(userSvc, policy.ActionDelete, policy.ResourceSubmission))
}

// Handlers

// create grades the submission synchronously; the response carries the
// computed score.
func (api *submissionApi) create(ctx echo.Context) error {
	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) query(ctx echo.Context) error {
	filter := new(submission.Filter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []submission.Submission{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.svc.QueryForUser(ctx.Request().Context(), ctxUsr, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding submission by ID")
	}
	// students may only see their own; leak nothing about others'
	if !(ctxUsr.IsAdmin() || ctxUsr.IsTeacher() || sub.StudentID == ctxUsr.ID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) update(ctx echo.Context) error {
	var data submission.UpdateSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubmission")
	}

	sub, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	return ctx.NoContent(http.StatusNoContent)
}
