package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core/batch"
)

type batchApi struct {
	svc      batch.Service
	validate *validator.Validate
}

func registerBatchAPI(g *echo.Group, admin echo.MiddlewareFunc, svc batch.Service, validate *validator.Validate) {
	api := batchApi{svc: svc, validate: validate}

	g.GET("/list", api.query)
	g.POST("/create", api.create, admin)
	g.POST("/add-student", api.addStudent, admin)
	g.GET("/:id/students", api.members)
	g.DELETE("/:id/students/:studentId", api.removeStudent, admin)
	g.DELETE("/:id", api.destroy, admin)
}

func (api *batchApi) query(ctx echo.Context) error {
	batches, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying batches")
	}
	if batches == nil {
		batches = []batch.Batch{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"batches": batches})
}

func (api *batchApi) create(ctx echo.Context) error {
	var data batch.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating batch")
	}
	return respond(ctx, http.StatusCreated, echo.Map{"batch": b})
}

func (api *batchApi) members(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	members, err := api.svc.Members(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying batch members")
	}
	if members == nil {
		members = []batch.Member{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"students": members})
}

func (api *batchApi) addStudent(ctx echo.Context) error {
	var data batch.AddStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.AddStudent(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "adding student to batch")
	}
	return respond(ctx, http.StatusCreated, nil)
}

func (api *batchApi) removeStudent(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	studentID, err := pathID(ctx, "studentId")
	if err != nil {
		return err
	}

	if err = api.svc.RemoveStudent(ctx.Request().Context(), id, studentID); err != nil {
		return errors.Wrap(err, "removing student from batch")
	}
	return respond(ctx, http.StatusOK, nil)
}

func (api *batchApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting batch")
	}
	return respond(ctx, http.StatusOK, nil)
}
