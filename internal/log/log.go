package log

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyMsg:   "action",
			logrus.FieldKeyLevel: "severity",
		},
	})
	return l
}

// SetOutput redirects every event line, e.g. to a file+stdout MultiWriter or a test buffer.
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// Writer returns the current sink.
func Writer() io.Writer { return logger.Out }

// Logger exposes the underlying logrus logger for components that log outside a request.
func Logger() *logrus.Logger { return logger }

func write(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	f := logrus.Fields{"level": level}
	if len(fields) > 0 {
		f["fields"] = fields
	}
	if c != nil {
		f["ip"] = c.IP()
		f["method"] = c.Method()
		f["path"] = c.Path()
		if st := c.Response().StatusCode(); st != 0 {
			f["status"] = st
		}
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			f["req_id"] = rid
		}
		if u, ok := c.Locals("username").(string); ok && u != "" {
			f["user"] = u
		}
	}
	if err != nil {
		f["err"] = err.Error()
	}
	e := logger.WithFields(f)
	switch level {
	case "error":
		e.Error(action)
	case "warn":
		e.Warn(action)
	default:
		e.Info(action)
	}
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { write("info", c, action, nil, fields) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write("audit", c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write("warn", c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write("error", c, action, err, fields)
}
