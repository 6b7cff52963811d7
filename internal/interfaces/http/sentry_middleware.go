package http

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
)

const localSentryHub = "sentry_hub"

// SentryMiddleware crea un hub por petición, captura panics y errores no manejados y los re-lanza.
// Sin DSN configurado el cliente de sentry descarta los eventos.
func SentryMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetTag("method", c.Method())
		hub.Scope().SetTag("path", c.Path())
		c.Locals(localSentryHub, hub)

		defer func() {
			if r := recover(); r != nil {
				hub.RecoverWithContext(c.UserContext(), r)
				panic(r)
			}
		}()

		err = c.Next()
		if err != nil {
			hub.CaptureException(err)
		}
		return err
	}
}

// captureError envía a Sentry un error que el handler convirtió en respuesta.
func captureError(c *fiber.Ctx, err error) {
	hub, ok := c.Locals(localSentryHub).(*sentry.Hub)
	if !ok || hub == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("route", fmt.Sprintf("%s %s", c.Method(), c.Route().Path))
		if uid := GetUserID(c); uid != "" {
			scope.SetUser(sentry.User{ID: uid, Email: GetEmail(c)})
		}
		hub.CaptureException(err)
	})
}
