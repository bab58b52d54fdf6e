package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lakekit/lakekit/gologger"
	"github.com/lakekit/lakekit/iceberg"
	"github.com/lakekit/lakekit/objectstore"
	"github.com/lakekit/lakekit/utils"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

var logger = gologger.NewLogger()

type HTTPServer struct {
	Echo *echo.Echo

	client *iceberg.Client
	// archive receives raw insert payloads when ARCHIVE_INSERTS=1, nil
	// otherwise
	archive objectstore.ObjectStore
}

type CustomValidator struct {
	validator *validator.Validate
}

func StartHTTPServer(client *iceberg.Client, archive objectstore.ObjectStore) *HTTPServer {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", utils.GetEnvOrDefault("HTTP_PORT", "8080")))
	if err != nil {
		logger.Error().Err(err).Msg("error creating tcp listener, exiting")
		os.Exit(1)
	}
	s := &HTTPServer{
		Echo:    echo.New(),
		client:  client,
		archive: archive,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.JSONSerializer = &utils.NoEscapeJSONSerializer{}

	s.Echo.Use(CreateReqContext)
	s.Echo.Use(LoggerMiddleware)
	s.Echo.Use(middleware.CORS())
	s.Echo.Validator = &CustomValidator{validator: validator.New()}

	// technical - no auth
	s.Echo.GET("/hc", s.HealthCheck)

	s.Echo.POST("/query", ccHandler(s.QueryHandler))

	s.Echo.GET("/schemas", ccHandler(s.ListSchemasHandler))
	s.Echo.POST("/schemas", ccHandler(s.CreateSchemaHandler))
	s.Echo.DELETE("/schemas/:schema", ccHandler(s.DropSchemaHandler))

	s.Echo.GET("/tables", ccHandler(s.ListTablesHandler))
	s.Echo.POST("/tables", ccHandler(s.CreateTableHandler))
	s.Echo.DELETE("/tables/:table", ccHandler(s.DropTableHandler))
	s.Echo.GET("/tables/:table/columns", ccHandler(s.DescribeTableHandler))
	s.Echo.GET("/tables/:table/count", ccHandler(s.CountHandler))
	s.Echo.POST("/tables/:table/query", ccHandler(s.QueryTableHandler))
	s.Echo.POST("/tables/:table/rows", ccHandler(s.InsertHandler))
	s.Echo.DELETE("/tables/:table/rows", ccHandler(s.DeleteRowsHandler))
	s.Echo.POST("/tables/:table/update", ccHandler(s.UpdateHandler))
	s.Echo.POST("/tables/:table/truncate", ccHandler(s.TruncateHandler))

	s.Echo.Listener = listener
	go func() {
		logger.Info().Msg("starting h2c server on " + listener.Addr().String())
		err := s.Echo.StartH2CServer("", &http2.Server{})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start h2c server, exiting")
			os.Exit(1)
		}
	}()

	return s
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func ValidateRequest(c echo.Context, s interface{}) error {
	if err := c.Bind(s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(s); err != nil {
		return err
	}
	return nil
}

func (*HTTPServer) HealthCheck(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	return err
}

// clientError reports caller mistakes (validation errors from the table
// client) as a 400, everything else as a logged 500.
func clientError(c *CustomContext, err error, msg string) error {
	var p interface{ IsPermanent() bool }
	if errors.As(err, &p) && p.IsPermanent() {
		return c.String(http.StatusBadRequest, err.Error())
	}
	return c.InternalError(err, msg)
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			// default handler
			c.Error(err)
		}
		stop := time.Since(start)
		// Log otherwise
		logger := zerolog.Ctx(c.Request().Context())
		req := c.Request()
		res := c.Response()

		p := req.URL.Path
		if p == "" {
			p = "/"
		}

		cl := req.Header.Get(echo.HeaderContentLength)
		if cl == "" {
			cl = "0"
		}
		logger.Debug().Str("method", req.Method).Str("remote_ip", c.RealIP()).Str("req_uri", req.RequestURI).Str("handler_path", c.Path()).Str("path", p).Int("status", res.Status).Int64("latency_ns", int64(stop)).Str("protocol", req.Proto).Str("bytes_in", cl).Int64("bytes_out", res.Size).Msg("req recived")
		return nil
	}
}
