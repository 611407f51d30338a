package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core/fee"
)

type feeApi struct {
	svc      fee.Service
	validate *validator.Validate
}

func registerFeeAPI(g *echo.Group, admin echo.MiddlewareFunc, svc fee.Service, validate *validator.Validate) {
	api := feeApi{svc: svc, validate: validate}

	g.GET("/history/:studentId", api.history)
	g.POST("/add", api.create, admin)
}

func (api *feeApi) history(ctx echo.Context) error {
	studentID, err := pathID(ctx, "studentId")
	if err != nil {
		return err
	}
	history, err := api.svc.History(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying fee history")
	}
	if history == nil {
		history = []fee.Payment{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"history": history})
}

func (api *feeApi) create(ctx echo.Context) error {
	var data fee.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Record(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return respond(ctx, http.StatusCreated, echo.Map{"payment": p})
}
