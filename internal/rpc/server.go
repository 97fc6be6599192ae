package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/RowanDark/xorcist/internal/cipher"
	"github.com/RowanDark/xorcist/internal/hexcodec"
	"github.com/RowanDark/xorcist/internal/keyfinder"
	"github.com/RowanDark/xorcist/internal/logging"
	"github.com/RowanDark/xorcist/internal/xorop"
)

// Options configures a Server. Zero values fall back to the default
// registry, the builtin recipes, a sequential key search and no audit log.
type Options struct {
	Registry *cipher.Registry
	Recipes  *cipher.RecipeManager
	Workers  int
	Audit    *logging.AuditLogger
	// MaxConns caps concurrently accepted connections in Serve. Zero means
	// unlimited.
	MaxConns int
}

// Server implements CipherServer.
type Server struct {
	registry *cipher.Registry
	recipes  *cipher.RecipeManager
	finder   *keyfinder.Finder
	audit    *logging.AuditLogger
}

// NewServer creates a new cipher server.
func NewServer(opts Options) *Server {
	s := &Server{
		registry: opts.Registry,
		recipes:  opts.Recipes,
		finder:   &keyfinder.Finder{Workers: opts.Workers},
		audit:    opts.Audit,
	}
	if s.registry == nil {
		s.registry = cipher.Default()
	}
	if s.recipes == nil {
		s.recipes = cipher.NewRecipeManager("")
	}
	if s.audit == nil {
		s.audit = logging.Discard()
	}
	return s
}

// Execute runs either the named recipe or the supplied operations over
// input_hex and returns output_hex.
func (s *Server) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	input, err := hexcodec.DecodeString(fields["input_hex"].GetStringValue())
	if err != nil {
		return nil, toStatus(fmt.Errorf("input_hex: %w", err))
	}

	pipeline, err := s.pipelineFor(fields)
	if err != nil {
		return nil, toStatus(err)
	}
	if fields["reverse"].GetBoolValue() {
		pipeline, err = pipeline.ReverseWith(s.registry)
		if err != nil {
			return nil, toStatus(err)
		}
	}

	output, err := pipeline.ExecuteWith(ctx, s.registry, input)
	if err != nil {
		s.audit.Emit(logging.AuditEvent{
			EventType: logging.EventOperationFailed,
			Decision:  logging.DecisionDeny,
			Reason:    err.Error(),
		})
		return nil, toStatus(err)
	}

	names := make([]string, len(pipeline.Operations))
	for i, op := range pipeline.Operations {
		names[i] = op.Name
	}
	s.audit.Emit(logging.AuditEvent{
		EventType: logging.EventOperationRun,
		Decision:  logging.DecisionInfo,
		Metadata:  map[string]any{"operations": fmt.Sprint(names), "input_len": len(input), "output_len": len(output)},
	})

	return structpb.NewStruct(map[string]any{
		"output_hex": hexcodec.EncodeToString(output),
	})
}

func (s *Server) pipelineFor(fields map[string]*structpb.Value) (*cipher.Pipeline, error) {
	if name := fields["recipe"].GetStringValue(); name != "" {
		recipe, ok := s.recipes.GetRecipe(name)
		if !ok {
			return nil, fmt.Errorf("%w: recipe %s", errNotFound, name)
		}
		p := recipe.Pipeline
		return &p, nil
	}

	list := fields["operations"].GetListValue()
	if list == nil || len(list.GetValues()) == 0 {
		return nil, fmt.Errorf("%w: either recipe or operations is required", errBadRequest)
	}
	p := &cipher.Pipeline{Reversible: true}
	for i, v := range list.GetValues() {
		op := v.GetStructValue()
		name := op.GetFields()["name"].GetStringValue()
		if name == "" {
			return nil, fmt.Errorf("%w: operation %d has no name", errBadRequest, i)
		}
		var params map[string]interface{}
		if ps := op.GetFields()["parameters"].GetStructValue(); ps != nil {
			params = ps.AsMap()
		}
		p.Operations = append(p.Operations, cipher.OperationConfig{Name: name, Parameters: params})
	}
	return p, nil
}

// Crack searches ciphertext_hex for its single-byte key. When lines is set
// instead, the most plausible line is returned along with its 1-based index.
func (s *Server) Crack(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	if lines := fields["lines"].GetListValue(); lines != nil {
		hexLines := make([]string, 0, len(lines.GetValues()))
		for _, v := range lines.GetValues() {
			hexLines = append(hexLines, v.GetStringValue())
		}
		det, err := s.finder.Detect(ctx, hexLines)
		if err != nil {
			return nil, toStatus(err)
		}
		s.emitRecovered(det.Candidate, det.Line)
		out := candidateFields(det.Candidate)
		out["line"] = det.Line
		return structpb.NewStruct(out)
	}

	cand, err := s.finder.Find(ctx, fields["ciphertext_hex"].GetStringValue())
	if err != nil {
		return nil, toStatus(err)
	}
	s.emitRecovered(cand, 0)
	return structpb.NewStruct(candidateFields(cand))
}

func (s *Server) emitRecovered(cand keyfinder.Candidate, line int) {
	meta := map[string]any{"key": int(cand.Key), "score": cand.Score}
	if line > 0 {
		meta["line"] = line
	}
	s.audit.Emit(logging.AuditEvent{
		EventType: logging.EventKeyRecovered,
		Decision:  logging.DecisionInfo,
		Metadata:  meta,
	})
}

func candidateFields(c keyfinder.Candidate) map[string]any {
	return map[string]any{
		"key":           int(c.Key),
		"score":         c.Score,
		"plaintext_hex": hexcodec.EncodeToString(c.Plaintext),
	}
}

// ListOperations describes every registered operation.
func (s *Server) ListOperations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ops := s.registry.List()
	list := make([]any, 0, len(ops))
	for _, op := range ops {
		_, reversible := op.Reverse()
		list = append(list, map[string]any{
			"name":        op.Name(),
			"type":        string(op.Type()),
			"description": op.Description(),
			"reversible":  reversible,
		})
	}
	return structpb.NewStruct(map[string]any{"operations": list})
}

// Identify runs the encoding detector over input_hex. Each result carries
// the guess and either decoded_hex or error.
func (s *Server) Identify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := hexcodec.DecodeString(req.GetFields()["input_hex"].GetStringValue())
	if err != nil {
		return nil, toStatus(fmt.Errorf("input_hex: %w", err))
	}
	if len(input) == 0 {
		return nil, toStatus(fmt.Errorf("%w: input_hex is empty", errBadRequest))
	}

	results, err := cipher.DecodeAllWith(ctx, s.registry, input)
	if err != nil {
		return nil, toStatus(err)
	}
	list := make([]any, 0, len(results))
	for _, r := range results {
		entry := map[string]any{
			"encoding":   r.Detection.Encoding,
			"confidence": r.Detection.Confidence,
			"reasoning":  r.Detection.Reasoning,
			"operation":  r.Detection.Operation,
		}
		if r.Success {
			entry["decoded_hex"] = hexcodec.EncodeToString(r.Decoded)
		} else {
			entry["error"] = r.Error
		}
		list = append(list, entry)
	}
	return structpb.NewStruct(map[string]any{"results": list})
}

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := codes.Internal
	switch {
	case errors.Is(err, hexcodec.ErrInvalidHexCharacter),
		errors.Is(err, hexcodec.ErrInvalidNibble),
		errors.Is(err, xorop.ErrLengthMismatch),
		errors.Is(err, cipher.ErrUnknownOperation),
		errors.Is(err, cipher.ErrInvalidParameter),
		errors.Is(err, errBadRequest):
		code = codes.InvalidArgument
	case errors.Is(err, cipher.ErrNotReversible):
		code = codes.FailedPrecondition
	case errors.Is(err, keyfinder.ErrNoCandidate),
		errors.Is(err, errNotFound):
		code = codes.NotFound
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	return status.Error(code, err.Error())
}

// auditInterceptor records every unary call with its outcome.
func auditInterceptor(audit *logging.AuditLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		event := logging.AuditEvent{
			EventType: logging.EventRPCCall,
			Decision:  logging.DecisionAllow,
			Metadata: map[string]any{
				"method":      info.FullMethod,
				"code":        status.Code(err).String(),
				"duration_ms": time.Since(start).Milliseconds(),
			},
		}
		if err != nil {
			event.Decision = logging.DecisionDeny
			event.Reason = err.Error()
		}
		audit.Emit(event)
		return resp, err
	}
}

// NewGRPCServer builds a grpc.Server with the cipher and health services
// registered. The returned health server reports SERVING for ServiceName.
func NewGRPCServer(opts Options) (*grpc.Server, *health.Server) {
	cipherServer := NewServer(opts)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(auditInterceptor(cipherServer.audit)))
	RegisterCipherServer(srv, cipherServer)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthServer)
	return srv, healthServer
}

// Serve runs the cipher service on lis until ctx is cancelled, then drains
// in-flight calls for up to two seconds before forcing a stop. It also
// returns, with the listener's error, if lis stops accepting first.
func Serve(ctx context.Context, lis net.Listener, opts Options) error {
	if opts.MaxConns > 0 {
		lis = netutil.LimitListener(lis, opts.MaxConns)
	}
	if opts.Audit == nil {
		opts.Audit = logging.Discard()
	}

	srv, healthServer := NewGRPCServer(opts)
	opts.Audit.Emit(logging.AuditEvent{
		EventType: logging.EventServerLifecycle,
		Decision:  logging.DecisionInfo,
		Reason:    "serving",
		Metadata:  map[string]any{"addr": lis.Addr().String(), "max_conns": opts.MaxConns},
	})

	served := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
		case <-served:
			// Serve failed on its own; release whatever it still holds.
			srv.Stop()
			return
		}
		healthServer.Shutdown()

		drained := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(drained)
		}()

		select {
		case <-drained:
		case <-time.After(2 * time.Second):
			srv.Stop()
		}
	}()

	err := srv.Serve(lis)
	close(served)
	<-stopped
	opts.Audit.Emit(logging.AuditEvent{
		EventType: logging.EventServerLifecycle,
		Decision:  logging.DecisionInfo,
		Reason:    "stopped",
	})
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
