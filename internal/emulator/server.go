package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"lambda-events/internal/auth"
	"lambda-events/internal/config"
	"lambda-events/internal/journal"
	"lambda-events/internal/logging"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

const (
	awsRequestIDKey = "aws_request_id"
	principalIDKey  = "principal_id"

	// MaxPayloadBytes is the synchronous invocation payload limit.
	MaxPayloadBytes = 6 * 1024 * 1024
)

// Options configures a Server. Handler is required; Authorizer and Journal
// are optional.
type Options struct {
	Config      *config.Config
	Handler     lambda.ProxyHandler
	Authorizer  lambda.CustomAuthorizerHandler
	Journal     *journal.Journal
	Logger      *logrus.Logger
	BinaryTypes []string
}

// Server emulates an API Gateway REST API with a single greedy proxy
// resource integrated with one function.
type Server struct {
	cfg        *config.Config
	handler    lambda.ProxyHandler
	authorizer lambda.CustomAuthorizerHandler
	journal    *journal.Journal
	logger     *logrus.Logger
	metrics    *Metrics
	eventOpts  EventOptions
	router     *gin.Engine
}

// NewServer creates the emulator and its routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Handler == nil {
		return nil, errors.New("emulator: a proxy handler is required")
	}
	if opts.Config == nil {
		return nil, errors.New("emulator: configuration is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	binaryTypes, err := CompileBinaryTypes(opts.BinaryTypes)
	if err != nil {
		return nil, fmt.Errorf("emulator: invalid binary media type: %w", err)
	}

	s := &Server{
		cfg:        opts.Config,
		handler:    opts.Handler,
		authorizer: opts.Authorizer,
		journal:    opts.Journal,
		logger:     opts.Logger,
		metrics:    NewMetrics(),
		eventOpts: EventOptions{
			AccountID:   opts.Config.Function.AccountID,
			APIID:       opts.Config.Emulator.APIID,
			Stage:       opts.Config.Emulator.Stage,
			BinaryTypes: binaryTypes,
		},
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving the emulated API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() *gin.Engine {
	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(StructuredLogger(s.logger))

	admin := r.Group("/_emulator")
	admin.GET("/health", s.health)
	admin.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	admin.GET("/invocations", s.listInvocations)
	admin.GET("/invocations/:id", s.getInvocation)

	limited := RateLimiter(s.cfg.Emulator.RateLimit, s.cfg.Emulator.RateBurst, s.metrics.RateLimited.Inc)
	r.NoRoute(limited, s.proxy)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Emulator.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.Function.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"port":     s.cfg.Emulator.Port,
			"stage":    s.cfg.Emulator.Stage,
			"function": s.cfg.Function.Name,
		}).Info("Emulator listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down emulator...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("emulator forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) proxy(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxPayloadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not read request body"})
		return
	}
	if len(body) > MaxPayloadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Request Too Long"})
		return
	}

	event := NewProxyEvent(c.Request, body, s.eventOpts)

	if s.authorizer != nil {
		authCtx, status, message := s.authorize(c.Request.Context(), event)
		if status != 0 {
			c.Header("x-amzn-ErrorType", errorType(status))
			c.JSON(status, gin.H{"message": message})
			return
		}
		event.RequestContext.Authorizer = events.Some(authCtx)
		if principal, ok := authCtx["principalId"].(string); ok {
			c.Set(principalIDKey, principal)
		}
	}

	lc := s.cfg.NewLambdaContext(event.RequestContext.RequestID, time.Now())
	c.Set(awsRequestIDKey, lc.AwsRequestID)

	invokeOpts := []lambda.InvokeOption{lambda.WithObserver(logging.Observer(s.logger))}
	if s.journal != nil {
		invokeOpts = append(invokeOpts, lambda.WithObserver(s.journal.Observer("aws:apigateway", event)))
	}

	s.metrics.InFlight.Inc()
	out := lambda.Invoke(c.Request.Context(), s.handler, event, lc, invokeOpts...)
	s.metrics.InFlight.Dec()
	s.metrics.InvocationDuration.WithLabelValues(event.HTTPMethod).Observe(out.Duration.Seconds())

	status := s.writeResult(c, out)
	s.metrics.Invocations.WithLabelValues(event.HTTPMethod, strconv.Itoa(status), string(out.Source)).Inc()
}

// writeResult renders an invocation outcome and returns the status written.
// Failures and malformed results surface as 502 like the proxy integration.
func (s *Server) writeResult(c *gin.Context, out lambda.Outcome[events.ProxyResult]) int {
	c.Header("x-amzn-RequestId", c.GetString(awsRequestIDKey))

	if out.Err != nil {
		c.Header("x-amzn-ErrorType", "InternalServerErrorException")
		c.JSON(http.StatusBadGateway, gin.H{"message": "Internal server error"})
		return http.StatusBadGateway
	}

	result := out.Result
	if err := events.Validate(result); err != nil {
		s.logger.WithError(err).WithField("aws_request_id", c.GetString(awsRequestIDKey)).Warn("Malformed Lambda proxy response")
		c.JSON(http.StatusBadGateway, gin.H{"message": "Internal server error"})
		return http.StatusBadGateway
	}

	body, err := result.DecodedBody()
	if err != nil {
		s.logger.WithError(err).Warn("Malformed Lambda proxy response body")
		c.JSON(http.StatusBadGateway, gin.H{"message": "Internal server error"})
		return http.StatusBadGateway
	}

	for k, v := range result.HeaderStrings() {
		c.Header(k, v)
	}
	contentType := c.Writer.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(result.StatusCode, contentType, body)
	return result.StatusCode
}

// authorize runs the TOKEN authorizer for event. A non-zero status means the
// request is refused with that status and message.
func (s *Server) authorize(ctx context.Context, event events.APIGatewayEvent) (events.AuthResponseContext, int, string) {
	token := event.Header("Authorization")
	if token == "" {
		s.metrics.AuthorizerDecisions.WithLabelValues("unauthorized").Inc()
		return nil, http.StatusUnauthorized, "Unauthorized"
	}

	authEvent := events.CustomAuthorizerEvent{
		Type:               events.AuthorizerTypeToken,
		MethodArn:          MethodArn(s.cfg.Function.Region, event),
		AuthorizationToken: token,
	}
	lc := s.cfg.NewLambdaContext(event.RequestContext.RequestID+"-authorizer", time.Now())
	out := lambda.Invoke(ctx, s.authorizer, authEvent, lc, lambda.WithObserver(logging.Observer(s.logger)))

	if out.Err != nil {
		if errors.Is(out.Err, auth.ErrUnauthorized) || out.Err.Error() == auth.ErrUnauthorized.Error() {
			s.metrics.AuthorizerDecisions.WithLabelValues("unauthorized").Inc()
			return nil, http.StatusUnauthorized, "Unauthorized"
		}
		s.metrics.AuthorizerDecisions.WithLabelValues("error").Inc()
		return nil, http.StatusInternalServerError, "AuthorizerConfigurationException"
	}

	resp := out.Result
	if err := events.Validate(resp); err != nil {
		s.logger.WithError(err).Warn("Authorizer returned an invalid policy")
		s.metrics.AuthorizerDecisions.WithLabelValues("error").Inc()
		return nil, http.StatusInternalServerError, "AuthorizerConfigurationException"
	}

	decision, err := Evaluate(resp.PolicyDocument, authEvent.MethodArn)
	if err != nil {
		s.logger.WithError(err).Warn("Authorizer policy could not be evaluated")
		s.metrics.AuthorizerDecisions.WithLabelValues("error").Inc()
		return nil, http.StatusInternalServerError, "AuthorizerConfigurationException"
	}
	s.metrics.AuthorizerDecisions.WithLabelValues(decision.String()).Inc()

	switch decision {
	case Allowed:
		authCtx := events.AuthResponseContext{"principalId": resp.PrincipalID}
		for k, v := range resp.Context {
			authCtx[k] = v
		}
		return authCtx, 0, ""
	case ExplicitDeny:
		return nil, http.StatusForbidden, "User is not authorized to access this resource with an explicit deny"
	default:
		return nil, http.StatusForbidden, "User is not authorized to access this resource"
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "UnauthorizedException"
	case http.StatusForbidden:
		return "AccessDeniedException"
	default:
		return "AuthorizerConfigurationException"
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"function":   s.cfg.Function.Name,
		"stage":      s.cfg.Emulator.Stage,
		"authorizer": s.authorizer != nil,
		"journal":    s.journal != nil,
		"mode":       config.GetDeploymentMode(),
	})
}

func (s *Server) listInvocations(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invocation journal is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be between 1 and 500"})
		return
	}

	entries, err := s.journal.Recent(c.Request.Context(), c.Query("function"), limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list invocations")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list invocations"})
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"invocations": entries, "count": len(entries)})
}

func (s *Server) getInvocation(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invocation journal is disabled"})
		return
	}

	entry, err := s.journal.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, journal.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invocation not found"})
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to load invocation")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load invocation"})
		return
	}
	c.JSON(http.StatusOK, entry)
}
