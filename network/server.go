package network

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/util/logging"
)

var DefaultShutdownTimeout = time.Second * 10

// HTTPServer serves the handler until the context of Start is done.
type HTTPServer struct {
	*logging.Logging
	bind    string
	handler http.Handler
}

func NewHTTPServer(bind string, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "http-server").Str("bind", bind)
		}),
		bind:    bind,
		handler: handler,
	}
}

// Start blocks until ctx is done or the server fails.
func (sv *HTTPServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", sv.bind)
	if err != nil {
		return errors.Wrapf(err, "failed to listen, %q", sv.bind)
	}

	return sv.Serve(ctx, ln)
}

func (sv *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           sv.handler,
		ReadHeaderTimeout: time.Second * 10,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errch := make(chan error, 1)

	go func() {
		sv.Log().Debug().Str("address", ln.Addr().String()).Msg("http server started")

		errch <- srv.Serve(ln)
	}()

	select {
	case err := <-errch:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return errors.Wrap(err, "http server stopped")
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "failed to shutdown http server")
	}

	<-errch

	sv.Log().Debug().Msg("http server stopped")

	return nil
}
