package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/policy"
	"github.com/minhaescola/backend/core/user"
)

type courseApi struct {
	svc      course.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.Service, userSvc user.Service, validate *validator.Validate) {
	api := courseApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create, policyMiddleware(userSvc, policy.ActionCreate, policy.ResourceCourse))
	cg.GET("", api.query, policyMiddleware(userSvc, policy.ActionList, policy.ResourceCourse))

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve, policyMiddleware(userSvc, policy.ActionRead, policy.ResourceCourse))
	dg.PUT("", api.update, policyMiddleware(userSvc, policy.ActionUpdate, policy.ResourceCourse))
	dg.DELETE("", api.destroy, policyMiddleware(userSvc, policy.ActionDelete, policy.ResourceCourse))

	registerMaterialAPI(g, jwt, &api)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.CreateCourse(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.CourseFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}

	reqCtx := ctx.Request().Context()
	crs, err := api.svc.GetCourse(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	if err = data.Validate(crs, api.validate); err != nil {
		return err
	}

	crs, err = api.svc.UpdateCourse(reqCtx, crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteCourses(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}
