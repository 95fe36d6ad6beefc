package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"xdao.co/idgov/ledger"
	"xdao.co/idgov/ledger/grpcledger"
	"xdao.co/idgov/ledger/memledger"
	"xdao.co/idgov/logging"
	"xdao.co/idgov/metrics"
	"xdao.co/idgov/schema"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

type options struct {
	listen        string
	metricsListen string
	epoch         uint64
	epochEvery    time.Duration
	committee     map[string]int64
	threshold     uint64
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	fs := pflag.NewFlagSet("xdao-ledgerd", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	var o options
	fs.StringVar(&o.listen, "listen", "127.0.0.1:7070", "gRPC listen address")
	fs.StringVar(&o.metricsListen, "metrics-listen", "", "Prometheus /metrics listen address (disabled when empty)")
	fs.Uint64Var(&o.epoch, "epoch", 0, "Starting epoch")
	fs.DurationVar(&o.epochEvery, "epoch-interval", 0, "Advance the epoch on this interval (disabled when zero)")
	fs.StringToInt64Var(&o.committee, "publish-committee", nil, "Publish an identity at startup: controller=weight,...")
	fs.Uint64Var(&o.threshold, "publish-threshold", 1, "Threshold for the identity published at startup")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	for c, w := range o.committee {
		if w <= 0 {
			return options{}, fmt.Errorf("publish-committee: weight for %q must be positive", c)
		}
	}
	return o, nil
}

func run(args []string, errOut io.Writer) int {
	o, err := parseFlags(args, errOut)
	if err != nil {
		return 2
	}
	log := logging.Configure(logging.ProfileRuntime, "xdao-ledgerd")

	l := memledger.New(memledger.WithEpoch(o.epoch), memledger.WithLogger(log))
	if len(o.committee) > 0 {
		id, err := publish(l, o.committee, o.threshold)
		if err != nil {
			log.Error().Err(err).Msg("publish identity")
			return 1
		}
		log.Info().Str("identity", id).Uint64("threshold", o.threshold).Msg("published identity")
	}

	lis, err := net.Listen("tcp", o.listen)
	if err != nil {
		log.Error().Err(err).Msg("listen")
		return 1
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcledger.RegisterLedgerServer(s, &grpcledger.Server{Ledger: metered{l}, Log: log})
	hs := health.NewServer()
	hs.SetServingStatus(grpcledger.Ledger_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if o.metricsListen != "" {
		metrics.RegisterMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: o.metricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
		defer srv.Close()
	}
	if o.epochEvery > 0 {
		go tickEpochs(ctx, l, o.epochEvery, log)
	}
	go func() {
		<-ctx.Done()
		hs.Shutdown()
		s.GracefulStop()
	}()

	log.Info().Str("addr", lis.Addr().String()).Uint64("epoch", o.epoch).Msg("xdao-ledgerd listening")
	if err := s.Serve(lis); err != nil {
		log.Error().Err(err).Msg("serve")
		return 1
	}
	return 0
}

func publish(l *memledger.Ledger, committee map[string]int64, threshold uint64) (string, error) {
	weights := make(map[string]uint64, len(committee))
	for c, w := range committee {
		weights[c] = uint64(w)
	}
	return l.PublishIdentity(schema.IdentityObject{Committee: weights, Threshold: threshold})
}

func tickEpochs(ctx context.Context, l *memledger.Ledger, every time.Duration, log zerolog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			log.Debug().Uint64("epoch", l.AdvanceEpoch(1)).Msg("epoch advanced")
		}
	}
}

// metered counts submissions by execution status.
type metered struct {
	ledger.Client
}

func (m metered) Submit(ctx context.Context, payload []byte) (*ledger.Effects, error) {
	fx, err := m.Client.Submit(ctx, payload)
	switch {
	case err != nil:
		metrics.RecordSubmit("rejected")
	case fx.Status.Success:
		metrics.RecordSubmit("")
	default:
		metrics.RecordSubmit(fx.Status.Code)
	}
	return fx, err
}
