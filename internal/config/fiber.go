package config

import (
	"NosePointer/pkg/handlerUtil"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger) *fiber.App {
	errHandler := handlerUtil.New(logger)

	app := fiber.New(
		fiber.Config{
			AppName:               "NosePointer",
			BodyLimit:             1 * 1024 * 1024,
			DisableKeepalive:      false,
			DisableStartupMessage: true,
			StrictRouting:         true,
			CaseSensitive:         true,
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			ErrorHandler: func(ctx *fiber.Ctx, err error) error {
				if fe, ok := err.(*fiber.Error); ok {
					return ctx.Status(fe.Code).JSON(handlerUtil.ErrorResponse{Error: fe.Message})
				}
				requestID, _ := ctx.Locals("X-Request-ID").(string)
				return errHandler.Handle(ctx, requestID, err, ctx.Path(), "unhandled")
			},
		})

	return app
}
