package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bjaus/datagrid"
	"github.com/bjaus/datagrid/internal/config"
)

var contentTypes = map[datagrid.RendererKind]string{
	datagrid.HTMLRenderer:     echo.MIMETextHTMLCharsetUTF8,
	datagrid.PagerRenderer:    echo.MIMETextHTMLCharsetUTF8,
	datagrid.SortFormRenderer: echo.MIMETextHTMLCharsetUTF8,
	datagrid.CSVRenderer:      "text/csv; charset=UTF-8",
	datagrid.XMLRenderer:      echo.MIMEApplicationXMLCharsetUTF8,
	datagrid.JSONRenderer:     echo.MIMEApplicationJSON,
	datagrid.JSONLRenderer:    "application/x-ndjson",
	datagrid.YAMLRenderer:     "application/yaml",
	datagrid.XLSXRenderer:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <grid.yaml>",
		Short: "Serve a grid over HTTP",
		Long: `Serve the grid defined in a YAML file. Every request is paged and
sorted from its page, orderBy and direction parameters. The format
parameter or the /<format> path picks the renderer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load grid definition", err)
			}
			return runServe(cmd.Context(), NewServer(cfg, rootOpts.Logger()), addr, rootOpts.Logger())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address")

	return cmd
}

func runServe(ctx context.Context, e *echo.Echo, addr string, log logrus.FieldLogger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdown); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithField("addr", addr).Info("serving grid")
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "serve", err)
	}
	return nil
}

// NewServer returns an echo server rendering cfg on GET / and
// GET /:format.
func NewServer(cfg *config.Grid, log logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{"method": v.Method, "uri": v.URI, "status": v.Status})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	}))

	h := &gridHandler{cfg: cfg, log: log}
	e.GET("/", h.render)
	e.GET("/:format", h.render)
	return e
}

type gridHandler struct {
	cfg *config.Grid
	log logrus.FieldLogger
}

func (h *gridHandler) render(c echo.Context) error {
	kind := h.cfg.RendererKind()
	format := c.Param("format")
	if format == "" {
		format = c.QueryParam("format")
	}
	if format != "" {
		k, err := datagrid.ParseRendererKind(format)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		kind = k
	}

	ctx := c.Request().Context()
	g, err := h.cfg.Build(ctx,
		datagrid.WithLogger(h.log),
		datagrid.WithRequest(datagrid.RequestFromHTTP(c.Request())),
	)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := g.Render(ctx, &buf, kind); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, datagrid.ErrUnsupported) || errors.Is(err, datagrid.ErrValidation) {
			status = http.StatusBadRequest
		}
		return echo.NewHTTPError(status, err.Error()).SetInternal(err)
	}

	contentType, ok := contentTypes[kind]
	if !ok {
		contentType = echo.MIMETextPlainCharsetUTF8
	}
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
