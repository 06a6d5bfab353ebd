package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/policy"
)

func registerMaterialAPI(g *echo.Group, jwt echo.MiddlewareFunc, api *courseApi) {
	mg := g.Group("/materials", jwt)
	mg.POST("", api.createMaterial, policyMiddleware(api.userSvc, policy.ActionCreate, policy.ResourceMaterial))
	mg.GET("", api.queryMaterials, policyMiddleware(api.userSvc, policy.ActionList, policy.ResourceMaterial))

	dg := mg.Group("/:id")
	dg.GET("", api.retrieveMaterial, policyMiddleware(api.userSvc, policy.ActionRead, policy.ResourceMaterial))
	dg.GET("/download", api.downloadMaterial, policyMiddleware(api.userSvc, policy.ActionRead, policy.ResourceMaterial))
	dg.PUT("", api.updateMaterial, policyMiddleware(api.userSvc, policy.ActionUpdate, policy.ResourceMaterial))
	dg.DELETE("", api.destroyMaterial, policyMiddleware(api.userSvc, policy.ActionDelete, policy.ResourceMaterial))
}

// setDownloadPath fills the API download location of the attachment.
func setDownloadPath(mat *course.Material) {
	mat.File = "/api/materials/" + mat.ID + "/download"
}

// Handlers

// createMaterial expects a multipart form: the metadata fields plus the
// attachment in the "file" part.
func (api *courseApi) createMaterial(ctx echo.Context) error {
	var data course.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file part is required")
	}
	file, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = file.Close() }()

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	up := course.Upload{
		Filename:    fileHdr.Filename,
		ContentType: fileHdr.Header.Get(echo.HeaderContentType),
		Size:        fileHdr.Size,
		Content:     file,
	}
	mat, err := api.svc.CreateMaterial(ctx.Request().Context(), data, up, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	setDownloadPath(&mat)
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *courseApi) queryMaterials(ctx echo.Context) error {
	filter := new(course.MaterialFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Material{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	materials, err := api.svc.QueryMaterials(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	if materials == nil {
		materials = []course.Material{}
	}
	for i := range materials {
		setDownloadPath(&materials[i])
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (api *courseApi) retrieveMaterial(ctx echo.Context) error {
	mat, err := api.svc.GetMaterial(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding material by ID")
	}
	setDownloadPath(&mat)
	return ctx.JSON(http.StatusOK, mat)
}

func (api *courseApi) downloadMaterial(ctx echo.Context) error {
	mat, content, _, err := api.svc.DownloadMaterial(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "downloading material")
	}
	defer func() { _ = content.Close() }()

	contentType := mat.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+mat.FileName+`"`)
	return ctx.Stream(http.StatusOK, contentType, content)
}

func (api *courseApi) updateMaterial(ctx echo.Context) error {
	var data course.UpdateMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMaterial")
	}

	reqCtx := ctx.Request().Context()
	mat, err := api.svc.GetMaterial(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding material by ID")
	}
	if err = data.Validate(mat, api.validate); err != nil {
		return err
	}

	mat, err = api.svc.UpdateMaterial(reqCtx, mat.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating material")
	}
	setDownloadPath(&mat)
	return ctx.JSON(http.StatusOK, mat)
}

func (api *courseApi) destroyMaterial(ctx echo.Context) error {
	if err := api.svc.DeleteMaterials(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return ctx.NoContent(http.StatusNoContent)
}
