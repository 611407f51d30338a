package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core/attendance"
)

type attendanceApi struct {
	svc      attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc attendance.Service, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	g.POST("/mark-batch", api.markBatch)
	g.GET("/student-history", api.studentHistory)
}

func (api *attendanceApi) markBatch(ctx echo.Context) error {
	var data attendance.MarkBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	report, err := api.svc.MarkBatch(ctx.Request().Context(), data, markedBy(ctx))
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return respond(ctx, http.StatusOK, echo.Map{"report": report})
}

func (api *attendanceApi) studentHistory(ctx echo.Context) error {
	history, err := api.svc.StudentHistory(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	return respond(ctx, http.StatusOK, echo.Map{"students": history})
}
