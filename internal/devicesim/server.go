package devicesim

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/smartkraft/lebensspur/internal/logging"
)

type Server struct {
	address string
	device  *Device
	logger  logging.Logger
}

func NewServer(address string, dev *Device, l logging.Logger) *Server {
	return &Server{
		address: address,
		device:  dev,
		logger:  l.With("module", "devicesim"),
	}
}

// Run serves the device API until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           NewRouter(s.device, s.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping device simulator")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "device simulator listening", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
