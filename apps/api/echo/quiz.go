package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core/policy"
	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/user"
)

type quizApi struct {
	svc      quiz.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc quiz.Service, userSvc user.Service, validate *validator.Validate) {
	api := quizApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	qg := g.Group("/quizzes", jwt)
	qg.POST("", api.create, policyMiddleware(userSvc, policy.ActionCreate, policy.ResourceQuiz))
	qg.GET("", api.query, policyMiddleware(userSvc, policy.ActionList, policy.ResourceQuiz))

	dg := qg.Group("/:id")
	dg.GET("", api.retrieve, policyMiddleware(userSvc, policy.ActionRead, policy.ResourceQuiz))
	dg.PUT("", api.update, policyMiddleware(userSvc, policy.ActionUpdate, policy.ResourceQuiz))
	dg.DELETE("", api.destroy, policyMiddleware(userSvc, policy.ActionDelete, policy.ResourceQuiz))

	// questions nested under their quiz; the route binding wins over
	// any quiz reference in the payload
	ng := qg.Group("/:quiz_id/questions", jwt)
	ng.POST("", api.createQuestion, policyMiddleware(userSvc, policy.ActionCreate, policy.ResourceQuestion))
	ng.GET("", api.queryQuestions, policyMiddleware(userSvc, policy.ActionList, policy.ResourceQuestion))

	registerQuestionAPI(g, jwt, &api)
}

// Handlers

func (api *quizApi) create(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	qz, err := api.svc.CreateQuiz(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) query(ctx echo.Context) error {
	filter := new(quiz.QuizFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []quiz.Quiz{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	quizzes, err := api.svc.QueryQuizzes(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	qz, err := api.svc.GetQuiz(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz by ID")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) update(ctx echo.Context) error {
	var data quiz.UpdateQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuiz")
	}

	reqCtx := ctx.Request().Context()
	qz, err := api.svc.GetQuiz(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding quiz by ID")
	}
	if err = data.Validate(qz, api.validate); err != nil {
		return err
	}

	qz, err = api.svc.UpdateQuiz(reqCtx, qz.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteQuizzes(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}
