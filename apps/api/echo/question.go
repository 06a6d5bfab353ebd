package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core/policy"
	"github.com/minhaescola/backend/core/quiz"
)

func registerQuestionAPI(g *echo.Group, jwt echo.MiddlewareFunc, api *quizApi) {
	qg := g.Group("/questions", jwt)
	qg.POST("", api.createQuestion, policyMiddleware(api.userSvc, policy.ActionCreate, policy.ResourceQuestion))
	qg.GET("", api.queryQuestions, policyMiddleware(api.userSvc, policy.ActionList, policy.ResourceQuestion))

	dg := qg.Group("/:id")
	dg.GET("", api.retrieveQuestion, policyMiddleware(api.userSvc, policy.ActionRead, policy.ResourceQuestion))
	dg.PUT("", api.updateQuestion, policyMiddleware(api.userSvc, policy.ActionUpdate, policy.ResourceQuestion))
	dg.DELETE("", api.destroyQuestion, policyMiddleware(api.userSvc, policy.ActionDelete, policy.ResourceQuestion))
}

// Handlers

func (api *quizApi) createQuestion(ctx echo.Context) error {
	var data quiz.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	// the nested route binding overrides any payload value
	if quizID := ctx.Param("quiz_id"); quizID != "" {
		data.QuizID = quizID
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.CreateQuestion(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *quizApi) queryQuestions(ctx echo.Context) error {
	filter := new(quiz.QuestionFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []quiz.Question{})
	}
	if quizID := ctx.Param("quiz_id"); quizID != "" {
		filter.QuizID = quizID
	}

	questions, err := api.svc.QueryQuestions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []quiz.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *quizApi) retrieveQuestion(ctx echo.Context) error {
	q, err := api.svc.GetQuestion(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding question by ID")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) updateQuestion(ctx echo.Context) error {
	var data quiz.UpdateQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}

	reqCtx := ctx.Request().Context()
	q, err := api.svc.GetQuestion(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding question by ID")
	}
	if err = data.Validate(q, api.validate); err != nil {
		return err
	}

	q, err = api.svc.UpdateQuestion(reqCtx, q.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) destroyQuestion(ctx echo.Context) error {
	if err := api.svc.DeleteQuestions(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}
